package pool

import (
	"testing"
)

func TestPartition_Completeness(t *testing.T) {
	for n := 0; n <= 25; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for k := 1; k <= 30; k++ {
			chunks, err := Partition(items, k)
			if err != nil {
				t.Fatalf("Partition(%d, %d): %v", n, k, err)
			}
			if len(chunks) != k {
				t.Fatalf("Partition(%d, %d) returned %d chunks", n, k, len(chunks))
			}

			size := (n + k - 1) / k
			next := 0
			for ci, chunk := range chunks {
				if len(chunk) > size {
					t.Fatalf("Partition(%d, %d) chunk %d has %d items, max %d", n, k, ci, len(chunk), size)
				}
				for _, v := range chunk {
					if v != next {
						t.Fatalf("Partition(%d, %d) chunk %d: got %d, want %d", n, k, ci, v, next)
					}
					next++
				}
			}
			if next != n {
				t.Fatalf("Partition(%d, %d) covered %d items, want %d", n, k, next, n)
			}
		}
	}
}

func TestPartition_Shapes(t *testing.T) {
	tests := []struct {
		n, k  int
		sizes []int
	}{
		{4, 2, []int{2, 2}},
		{5, 3, []int{2, 2, 1}},
		{2, 4, []int{1, 1, 0, 0}},
		{20, 8, []int{3, 3, 3, 3, 3, 3, 2, 0}},
		{0, 3, []int{0, 0, 0}},
	}

	for _, tt := range tests {
		chunks, err := Partition(make([]struct{}, tt.n), tt.k)
		if err != nil {
			t.Fatalf("Partition(%d, %d): %v", tt.n, tt.k, err)
		}
		for i, want := range tt.sizes {
			if len(chunks[i]) != want {
				t.Errorf("Partition(%d, %d) chunk %d size = %d, want %d", tt.n, tt.k, i, len(chunks[i]), want)
			}
		}
	}
}

func TestPartition_InvalidWorkerCount(t *testing.T) {
	for _, k := range []int{0, -1} {
		if _, err := Partition([]int{1, 2}, k); err == nil {
			t.Errorf("Partition with k=%d should fail", k)
		}
	}
}

func TestPartition_ChunksDoNotAlias(t *testing.T) {
	items := []int{0, 1, 2, 3}
	chunks, _ := Partition(items, 2)

	chunks[0] = append(chunks[0], 99)
	if items[2] != 2 {
		t.Error("appending to a chunk must not overwrite the next chunk")
	}
}
