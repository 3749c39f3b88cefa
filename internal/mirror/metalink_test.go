package mirror

import (
	"testing"
)

func TestParseMetalink(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?>
<metalink version="3.0" xmlns="http://www.metalinker.org/">
  <files>
    <file name="repomd.xml">
      <resources>
        <url protocol="http" type="http" location="NL" preference="90">http://low.example/fedora/repodata/repomd.xml</url>
        <url protocol="https" type="https" location="DE" preference="100">
          https://high.example/fedora/repodata/repomd.xml
        </url>
        <url protocol="rsync" type="rsync" location="CZ" preference="99">rsync://skip.example/fedora/repodata/repomd.xml</url>
      </resources>
    </file>
  </files>
</metalink>`)

	mirrors, err := parseMetalink(data)
	if err != nil {
		t.Fatalf("parseMetalink returned error: %v", err)
	}

	if len(mirrors) != 2 {
		t.Fatalf("expected 2 mirrors (rsync skipped), got %d", len(mirrors))
	}
	if mirrors[0].URL != "https://high.example/fedora" {
		t.Errorf("expected preference sort and repomd suffix strip, got %q", mirrors[0].URL)
	}
	if mirrors[1].URL != "http://low.example/fedora" {
		t.Errorf("unexpected second mirror: %q", mirrors[1].URL)
	}
	if mirrors[0].Country != "DE" {
		t.Errorf("unexpected country: %q", mirrors[0].Country)
	}
}

func TestParseMetalinkInvalid(t *testing.T) {
	if _, err := parseMetalink([]byte("not xml at all <<<")); err == nil {
		t.Fatal("expected error for malformed XML")
	}
}

func TestParseMetalinkEmpty(t *testing.T) {
	mirrors, err := parseMetalink([]byte(`<metalink><files></files></metalink>`))
	if err != nil {
		t.Fatalf("parseMetalink returned error: %v", err)
	}
	if len(mirrors) != 0 {
		t.Fatalf("expected no mirrors, got %d", len(mirrors))
	}
}
