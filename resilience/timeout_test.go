package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestTimeout_Exceeded(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})

	err := to.Execute(context.Background(), blockUntilDone)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want underlying cause kept", err)
	}
}

func TestTimeout_CompletesInTime(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	if err := to.Execute(context.Background(), succeed); err != nil {
		t.Errorf("error = %v", err)
	}
	if err := to.Execute(context.Background(), fail); !errors.Is(err, errStore) {
		t.Errorf("error = %v, want %v", err, errStore)
	}
}

func TestTimeout_CallerDeadlineNotRelabeled(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := to.Execute(ctx, blockUntilDone)

	if errors.Is(err, ErrTimeout) {
		t.Error("caller deadline reported as ErrTimeout")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestTimeout_Default(t *testing.T) {
	if got := NewTimeout(TimeoutConfig{}).Config().Timeout; got != 3*time.Second {
		t.Errorf("default timeout = %v, want 3s", got)
	}
}
