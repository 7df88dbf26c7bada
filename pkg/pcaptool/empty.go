package pcaptool

import (
	"os"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// WriteEmptyCapture writes a capture file containing no packets, so a time
// range that matched nothing still yields a file other tools can open.
func WriteEmptyCapture(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
