package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// A consumer claims an event before handling it and gives the claim back
// when handling failed, so the redelivery is processed again.
func ExampleManager_Release() {
	ctx := context.Background()
	claims, _ := NewManager(newClaimStore(), 24*time.Hour)
	orderCreated := uuid.MustParse("0b6c3d0e-8a51-4a7e-9a0e-2f1c6b9d4e21")

	handle := func(fail bool) {
		dup, _ := claims.CheckAndMarkProcessed(ctx, "analytics-worker", orderCreated)
		switch {
		case dup:
			fmt.Println("skip: already applied")
		case fail:
			_ = claims.Release(ctx, "analytics-worker", orderCreated)
			fmt.Println("nack: warehouse unavailable")
		default:
			fmt.Println("ack: fact written")
		}
	}

	handle(true)
	handle(false)
	handle(false)
	// Output:
	// nack: warehouse unavailable
	// ack: fact written
	// skip: already applied
}
