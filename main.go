package main

import (
	"os"
	"os/signal"
	"syscall"

	"yeetbot.dev/yeet/bots"
	"yeetbot.dev/yeet/internal/log"
)

func main() {
	if err := bots.InitConfig(); err != nil {
		log.FatalQuick(err)
	}
	if err := bots.InitDirs(); err != nil {
		log.FatalQuick(err)
	}
	if err := bots.InitLogger(); err != nil {
		log.FatalQuick(err)
	}
	if err := bots.InitTokens(); err != nil {
		log.FatalQuick(err)
	}
	if err := bots.InitLeveldb(); err != nil {
		log.FatalQuick(err)
	}
	if err := bots.InitSqlite(); err != nil {
		log.FatalQuick(err)
	}
	bots.InitGist()

	if bots.RunCommandLine() {
		os.Exit(bots.Close())
	}

	if err := bots.InitHeartbeater(); err != nil {
		log.FatalQuick(err)
	}
	if err := bots.InitCron(); err != nil {
		log.FatalQuick(err)
	}
	bots.Run()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	os.Exit(bots.Close())
}
