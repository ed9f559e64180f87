package repository

import "context"

// Factory describes access to the store backing the print service.
type Factory interface {
	Orders() OrderRepository
	OrderFeed() OrderFeed
	Commands() CommandRepository
	CommandFeed() CommandFeed
	Status() StatusRepository
	HealthCheck(ctx context.Context) error
}
