package bufiopool

import (
	"strings"
	"testing"
)

func TestPoolAcquireRelease(t *testing.T) {
	p := New(0, 0)

	r := p.AcquireReader(strings.NewReader("first"))
	if r.Size() != MinReadBufferSize {
		t.Fatalf("unexpected reader size %d", r.Size())
	}
	line, err := r.ReadString('t')
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if line != "first" {
		t.Fatalf("unexpected read %q", line)
	}
	p.ReleaseReader(r)

	//a recycled reader must not leak bytes of its previous source
	r2 := p.AcquireReader(strings.NewReader("second"))
	line, err = r2.ReadString('d')
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if line != "second" {
		t.Fatalf("unexpected read %q", line)
	}
	p.ReleaseReader(r2)

	var sb strings.Builder
	w := p.AcquireWriter(&sb)
	if w.Available() != MinWriteBufferSize {
		t.Fatalf("unexpected writer size %d", w.Available())
	}
	if _, err = w.WriteString("hello"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err = w.Flush(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sb.String() != "hello" {
		t.Fatalf("unexpected write %q", sb.String())
	}
	p.ReleaseWriter(w)
}
