// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdffetch

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// minPDFSize rejects error pages and truncated downloads.
const minPDFSize = 1024

var pdfMagic = []byte("%PDF")

// ValidatePDF checks that path holds a plausible PDF: at least 1 KiB
// and starting with the %PDF magic bytes.
func ValidatePDF(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() < minPDFSize {
		return fmt.Errorf("file too small (%d bytes)", info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(header, pdfMagic) {
		return fmt.Errorf("missing %%PDF magic bytes")
	}
	return nil
}
