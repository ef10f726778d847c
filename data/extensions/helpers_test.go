package extensions

import (
	"strings"
	"testing"
	"time"
)

func TestFilterSingle(t *testing.T) {
	keys := []string{"1. open", "4. close", "5. adjusted close"}

	res, err := FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, ". adjusted close") })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertAreEqual(t, "adjusted close key", "5. adjusted close", res)

	if _, err := FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, "close") }); err == nil {
		t.Fatalf("expected an error when two keys match")
	}

	if _, err := FilterSingle(keys, func(s string) bool { return s == "volume" }); err == nil {
		t.Fatalf("expected an error when nothing matches")
	}
}

func TestFilterMultiplePtr(t *testing.T) {
	a, b, c := 1, 5, 9
	res := FilterMultiplePtr([]*int{&a, &b, &c}, func(v *int) bool { return *v > 2 })

	AssertAreEqual(t, "length", 2, len(res))
	AssertAreEqual(t, "first", 5, *res[0])
}

func TestFirstDuplicate(t *testing.T) {
	if _, ok := FirstDuplicate([]string{"AAPL", "GOOG", "JNJ"}); ok {
		t.Errorf("expected no duplicate")
	}

	dup, ok := FirstDuplicate([]string{"AAPL", "GOOG", "AAPL", "GOOG"})
	if !ok {
		t.Fatalf("expected a duplicate")
	}
	AssertAreEqual(t, "duplicate", "AAPL", dup)
}

func TestDotProduct(t *testing.T) {
	res, err := DotProduct([]float64{0.3, 0.7}, []float64{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertInDelta(t, "dot product", 1.7, res, 1e-12)

	if _, err := DotProduct([]int{1, 2}, []int{1}); err == nil {
		t.Errorf("expected length mismatch error")
	}
}

func TestNumericHelpers(t *testing.T) {
	AssertAreEqual(t, "min", 3, Min(3, 8))
	AssertAreEqual(t, "max", 8, Max(3, 8))
	AssertAreEqual(t, "sum", 10, Sum([]int{1, 2, 3, 4}))
	AssertAreEqual(t, "fmt short", "2024-03-01", FmtShort(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)))
	if !AreEqual("yahoo", "YAHOO") {
		t.Errorf("expected case insensitive match")
	}
}
