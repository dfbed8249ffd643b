package embedding

// meanPool averages the token vectors whose attention mask is set.
func meanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	var n float32
	for tok, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[tok*dims : (tok+1)*dims]
		for d, v := range row {
			out[d] += v
		}
		n++
	}
	if n > 0 {
		for d := range out {
			out[d] /= n
		}
	}
	return out
}
