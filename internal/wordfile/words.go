// Package wordfile stores a list of names in a single file that can be
// indexed without loading it. The random pokémon game reads names from it.
package wordfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const sizeOfInt = 4

var signature = []byte(fmt.Sprintf("YEETWORDS%d", sizeOfInt*8))

var (
	ErrSigIncorrect = errors.New("file signature is incorrect")
	ErrOutOfRange   = errors.New("word index out of range")
)

func NewWordWriter(file string) (*WordWriter, error) {
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	if _, err = f.Write(signature); err != nil {
		f.Close()
		return nil, err
	}
	// table offset, filled in on close
	if _, err = f.Write(binary.BigEndian.AppendUint32(nil, 0)); err != nil {
		f.Close()
		return nil, err
	}
	return &WordWriter{
		file: f,
		pos:  int64(len(signature) + sizeOfInt),
	}, nil
}

type WordWriter struct {
	file  *os.File
	pos   int64
	index []uint32
}

func (w *WordWriter) Add(word string) error {
	w.index = append(w.index, uint32(w.pos))
	n, err := w.file.WriteString(word)
	w.pos += int64(n)
	return err
}

// Close writes the offset table. The table holds one extra entry marking the
// end of the last word.
func (w *WordWriter) Close() error {
	end := w.pos
	tableStart := (end + sizeOfInt - 1) / sizeOfInt * sizeOfInt
	if _, err := w.file.Write(bytes.Repeat([]byte{0x00}, int(tableStart-end))); err != nil {
		w.file.Close()
		return err
	}
	if _, err := w.file.WriteAt(binary.BigEndian.AppendUint32(nil, uint32(tableStart)), int64(len(signature))); err != nil {
		w.file.Close()
		return err
	}
	table := make([]byte, 0, (len(w.index)+1)*sizeOfInt)
	for _, v := range w.index {
		table = binary.BigEndian.AppendUint32(table, v)
	}
	table = binary.BigEndian.AppendUint32(table, uint32(end))
	if _, err := w.file.WriteAt(table, tableStart); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func NewWordReader(file string) (*WordReader, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	header := make([]byte, len(signature)+sizeOfInt)
	if _, err = io.ReadFull(f, header); err != nil {
		f.Close()
		return nil, ErrSigIncorrect
	}
	if !bytes.Equal(header[:len(signature)], signature) {
		f.Close()
		return nil, ErrSigIncorrect
	}
	start := int64(binary.BigEndian.Uint32(header[len(signature):]))
	s, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &WordReader{
		file:  f,
		start: start,
		size:  s.Size() - start,
	}, nil
}

type WordReader struct {
	file  *os.File
	start int64
	size  int64
}

func (w WordReader) Length() int {
	return max(int(w.size/sizeOfInt)-1, 0)
}

func (w WordReader) Get(index int) ([]byte, error) {
	if index < 0 || index >= w.Length() {
		return nil, ErrOutOfRange
	}
	b := make([]byte, sizeOfInt*2)
	if _, err := w.file.ReadAt(b, w.start+int64(index)*sizeOfInt); err != nil {
		return nil, err
	}
	start := binary.BigEndian.Uint32(b)
	end := binary.BigEndian.Uint32(b[sizeOfInt:])
	word := make([]byte, end-start)
	if _, err := w.file.ReadAt(word, int64(start)); err != nil {
		return nil, err
	}
	return word, nil
}

func (w WordReader) Close() error {
	return w.file.Close()
}
