package test

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/printerd/internal/domain/model"
)

const asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomASCIIString returns a pseudo-random ASCII string within the provided bounds.
func RandomASCIIString(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen
	if maxLen > minLen {
		length += randomIntn(maxLen - minLen + 1)
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = asciiLetters[randomIntn(len(asciiLetters))]
	}
	return string(buf)
}

// RandomOrder builds an unprinted order with between one and items lines.
// The total is the exact sum of the line prices.
func RandomOrder(items int) model.Order {
	if items <= 0 {
		items = 1
	}
	n := 1 + randomIntn(items)
	order := model.Order{
		ID:           RandomASCIIString(24, 24),
		CustomerName: RandomASCIIString(3, 12),
		CreatedAt:    time.Unix(int64(1_700_000_000+randomIntn(10_000_000)), 0).UTC(),
		Items:        make([]model.OrderItem, 0, n),
	}
	for i := 0; i < n; i++ {
		qty := 1 + randomIntn(3)
		unit := decimal.New(int64(100+randomIntn(2000)), -2)
		price := unit.Mul(decimal.NewFromInt(int64(qty)))
		order.Items = append(order.Items, model.OrderItem{
			Quantity:       qty,
			MenuItemNumber: 1 + randomIntn(40),
			Name:           fmt.Sprintf("Gericht %d", 1+randomIntn(40)),
			TotalPrice:     price,
		})
		order.TotalAmount = order.TotalAmount.Add(price)
	}
	return order
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}
