package logtail

import "testing"

func TestParseNginxAccess(t *testing.T) {
	line := `192.168.1.10 - - [15/Jan/2024:10:30:00 +0000] "GET /api/method/ping HTTP/1.1" 200 15 "-" "curl/8.0"`
	rec, ok := ParseNginxAccess(line)
	if !ok {
		t.Fatal("expected access line to parse")
	}
	if rec.IP != "192.168.1.10" || rec.Status != "200" || rec.Request != "GET /api/method/ping HTTP/1.1" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.UserAgent != "curl/8.0" {
		t.Fatalf("got user agent %q", rec.UserAgent)
	}

	if _, ok := ParseNginxAccess("not an access line"); ok {
		t.Fatal("expected garbage to be rejected")
	}
}

func TestParseErrorLine(t *testing.T) {
	rec, ok := ParseErrorLine("[2024-01-15 10:30:00] [error] [worker] job failed")
	if !ok {
		t.Fatal("expected error line to parse")
	}
	if rec.Level != "error" || rec.Source != "worker" || rec.Message != "job failed" {
		t.Fatalf("unexpected record %+v", rec)
	}

	rec, ok = ParseErrorLine("[2024-01-15 10:30:00] [warn] no source here")
	if !ok || rec.Source != "" || rec.Message != "no source here" {
		t.Fatalf("unexpected record %+v ok=%v", rec, ok)
	}
}
