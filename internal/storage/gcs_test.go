package storage

import (
	"bytes"
	"io"
	"testing"
)

func TestObjectFromURLRoundTrip(t *testing.T) {
	url := publicURL("study-bucket", "study-files/1724800000000_notes.txt")

	object, err := objectFromURL("study-bucket", url)
	if err != nil {
		t.Fatalf("objectFromURL failed: %v", err)
	}
	if object != "study-files/1724800000000_notes.txt" {
		t.Errorf("object = %q", object)
	}
}

func TestObjectFromURLRejectsForeignBucket(t *testing.T) {
	url := publicURL("other-bucket", "study-files/notes.txt")

	if _, err := objectFromURL("study-bucket", url); err == nil {
		t.Error("objectFromURL should reject a URL from another bucket")
	}
}

func TestObjectFromURLRejectsGarbage(t *testing.T) {
	if _, err := objectFromURL("study-bucket", "://not a url"); err == nil {
		t.Error("objectFromURL should reject malformed URLs")
	}
}

func TestProgressReaderReportsMonotonically(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)

	var reports []int
	pr := &progressReader{
		r:      bytes.NewReader(data),
		total:  int64(len(data)),
		report: func(pct int) { reports = append(reports, pct) },
	}

	if _, err := io.Copy(io.Discard, io.LimitReader(pr, 2000)); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(reports) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] <= reports[i-1] {
			t.Errorf("progress went backwards: %v", reports)
			break
		}
	}
	last := reports[len(reports)-1]
	if last > 99 {
		t.Errorf("reader reported %d%%, 100%% is reserved for the finalized upload", last)
	}
}
