package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const pdfMagic = "%PDF-"

// errBadPassword marks a decrypt attempt with a missing or wrong password.
// It is a soft outcome: the import drops back to pending with
// password_required set instead of failing.
var errBadPassword = errors.New("statement password missing or wrong")

// IsPDF checks the file magic. Statements are validated before anything is
// written to storage.
func IsPDF(data []byte) bool {
	return len(data) >= len(pdfMagic) && string(data[:len(pdfMagic)]) == pdfMagic
}

// IsEncrypted reports whether the PDF carries an encryption dictionary.
// False positives are possible on exotic files; qpdf settles it during
// decryption.
func IsEncrypted(data []byte) bool {
	return bytes.Contains(data, []byte("/Encrypt"))
}

// DecryptPDF removes the password protection from a statement using qpdf.
// The decrypted bytes never touch blob storage; they exist only for the
// lifetime of the parse job.
func DecryptPDF(ctx context.Context, data []byte, password string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "statement-decrypt-")
	if err != nil {
		return nil, fmt.Errorf("DecryptPDF: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("DecryptPDF: write input: %w", err)
	}

	cmd := exec.CommandContext(ctx, "qpdf", "--password="+password, "--decrypt", in, out)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if strings.Contains(strings.ToLower(stderr.String()), "password") {
			return nil, errBadPassword
		}
		return nil, fmt.Errorf("DecryptPDF: qpdf: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	decrypted, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("DecryptPDF: read output: %w", err)
	}
	return decrypted, nil
}
