package importer

import "testing"

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"pdf header", []byte("%PDF-1.7\n..."), true},
		{"pdf header only", []byte("%PDF-"), true},
		{"png header", []byte("\x89PNG\r\n"), false},
		{"plain text", []byte("hello world"), false},
		{"truncated magic", []byte("%PD"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDF(tt.data); got != tt.want {
				t.Errorf("IsPDF = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEncrypted(t *testing.T) {
	plain := []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	if IsEncrypted(plain) {
		t.Error("plain PDF reported encrypted")
	}

	encrypted := []byte("%PDF-1.7\ntrailer\n<< /Encrypt 5 0 R /Size 6 >>\n")
	if !IsEncrypted(encrypted) {
		t.Error("encrypted PDF not detected")
	}
}
