package resource

import "embed"

// PokemonCSV is the bundled spawn table, used until update-spawns has cached
// a fresher copy.
//
//go:embed pokemon.csv
var PokemonCSV []byte

//go:embed docs/*.md
var Docs embed.FS
