package timer

import (
	"strings"
	"testing"
)

func TestMarkAndPrint(t *testing.T) {
	tm := NewXTimer()
	tm.Mark("load")
	tm.Mark("verify")

	out := tm.Print()
	for _, label := range []string{"load:", "verify:", "total:"} {
		if !strings.Contains(out, label) {
			t.Fatalf("expect %s in output:%s", label, out)
		}
	}
	if strings.Count(out, ",") != 2 {
		t.Fatalf("unexpected mark count:%s", out)
	}
}

func TestPrintWithoutMarks(t *testing.T) {
	tm := NewXTimer()
	out := tm.Print()
	if !strings.HasPrefix(out, "total:") {
		t.Fatalf("expect bare total got %s", out)
	}
}
