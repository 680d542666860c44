package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "2026/01/id_lease.pdf", want: "2026/01/id_lease.pdf"},
		{name: "simple prefix", prefix: "legal", key: "2026/01/id_lease.pdf", want: "legal/2026/01/id_lease.pdf"},
		{name: "prefix and key slashes", prefix: "/legal/", key: "/2026/01/id_lease.pdf", want: "legal/2026/01/id_lease.pdf"},
		{name: "empty key", prefix: "legal", key: "", want: "legal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"nda.PDF":     "application/pdf",
		"terms.docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"notes.txt":   "text/plain; charset=utf-8",
		"archive.bin": "application/octet-stream",
	}
	for name, want := range tests {
		if got := contentTypeFor(name); got != want {
			t.Fatalf("contentTypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}
