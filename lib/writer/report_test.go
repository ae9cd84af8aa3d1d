package writer

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPartitionEvenSplit(t *testing.T) {
	ranges := Partition(1000, 4)

	expected := []Range{{0, 250}, {250, 500}, {500, 750}, {750, 1000}}
	if len(ranges) != len(expected) {
		t.Fatalf("Expected %d ranges, got %d", len(expected), len(ranges))
	}
	for i, r := range ranges {
		if r != expected[i] {
			t.Errorf("Expected range %d to be %+v, got %+v", i, expected[i], r)
		}
	}
}

func TestPartitionRemainderGoesToLastRange(t *testing.T) {
	ranges := Partition(103, 4)

	if len(ranges) != 4 {
		t.Fatalf("Expected 4 ranges, got %d", len(ranges))
	}
	last := ranges[3]
	if last.Len() != 25+3 {
		t.Errorf("Expected last range to absorb the remainder, got len %d", last.Len())
	}
	if last.End != 103 {
		t.Errorf("Expected last range to end at 103, got %d", last.End)
	}
}

func TestPartitionClampsWorkerCount(t *testing.T) {
	if got := len(Partition(5, 10)); got != 5 {
		t.Errorf("Expected worker count capped at 5, got %d ranges", got)
	}
	if got := len(Partition(5, 0)); got != 1 {
		t.Errorf("Expected worker count raised to 1, got %d ranges", got)
	}
	if got := len(Partition(0, 4)); got != 0 {
		t.Errorf("Expected no ranges for empty key-space, got %d", got)
	}
}

func TestPartitionCoversKeySpaceExactly(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ranges tile [0, totalKeys) without gaps or overlaps", prop.ForAll(
		func(totalKeys, numWorkers int) bool {
			ranges := Partition(totalKeys, numWorkers)
			if len(ranges) == 0 {
				return false
			}
			if ranges[0].Start != 0 {
				return false
			}
			for i := 1; i < len(ranges); i++ {
				if ranges[i].Start != ranges[i-1].End {
					return false
				}
			}
			sum := 0
			for _, r := range ranges {
				if r.Len() < 1 {
					return false
				}
				sum += r.Len()
			}
			return ranges[len(ranges)-1].End == totalKeys && sum == totalKeys
		},
		gen.IntRange(1, 10000),
		gen.IntRange(-3, 64),
	))

	properties.TestingRun(t)
}

func TestReportRates(t *testing.T) {
	rep := Report{KeysWritten: 500, Duration: 2 * time.Second}
	if got := rep.Rate(); got != 250 {
		t.Errorf("Expected rate 250, got %f", got)
	}

	agg := AggregateReport{TotalKeysWritten: 1000, Duration: 4 * time.Second}
	if got := agg.Rate(); got != 250 {
		t.Errorf("Expected aggregate rate 250, got %f", got)
	}

	var zero Report
	if got := zero.Rate(); got != 0 {
		t.Errorf("Expected zero rate for zero duration, got %f", got)
	}
}

func TestProjectedDuration(t *testing.T) {
	multi := MultiVersionReport{TotalKeysWritten: 1000, Duration: time.Second}

	if got := multi.ProjectedDuration(10000); got != 10*time.Second {
		t.Errorf("Expected projection of 10s, got %v", got)
	}

	var empty MultiVersionReport
	if got := empty.ProjectedDuration(10000); got != 0 {
		t.Errorf("Expected zero projection without a rate, got %v", got)
	}
}
