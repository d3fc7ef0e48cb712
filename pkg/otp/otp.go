package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// Generator числовые одноразовые коды фиксированной длины без ведущих нулей.
type Generator struct {
	low   int64
	width *big.Int
}

func New(digits int) *Generator {
	if digits < 1 {
		digits = 1
	}

	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	high := low*10 - 1
	if digits == 1 {
		low = 0
	}

	return &Generator{
		low:   low,
		width: big.NewInt(high - low + 1),
	}
}

func (g *Generator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.width)
	if err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return strconv.FormatInt(g.low+n.Int64(), 10), nil
}
