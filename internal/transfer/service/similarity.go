package service

// Scorer — сходство двух имён по шкале 0..100.
type Scorer func(a, b string) float64

// PartialRatio прикладывает короткую строку ко всем окнам длинной, включая
// неполные окна на обоих краях, и берёт лучшее indel-сходство окна.
// Пустая строка даёт 0.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	best := partialScan(ra, rb)
	if len(ra) == len(rb) && best < 100 {
		if s := partialScan(rb, ra); s > best {
			best = s
		}
	}
	return best
}

func partialScan(short, long []rune) float64 {
	m, n := len(short), len(long)
	best := 0.0
	try := func(w []rune) bool {
		if s := ratio(short, w); s > best {
			best = s
		}
		return best >= 100
	}

	// левый край: окно короче short
	for i := 1; i < m; i++ {
		if try(long[:i]) {
			return best
		}
	}
	// полные окна
	for i := 0; i+m <= n; i++ {
		if try(long[i : i+m]) {
			return best
		}
	}
	// правый край
	for i := n - m + 1; i < n; i++ {
		if try(long[i:]) {
			return best
		}
	}
	return best
}

// ratio — нормализованное indel-сходство: 200*LCS / (len(a)+len(b)).
func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcsLen(a, b)) / float64(total)
}

// длина наибольшей общей подпоследовательности, две строки DP
func lcsLen(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
