package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go-leave/internal/balance"
	balanceerrors "go-leave/internal/balance/errors"
	balanceMock "go-leave/internal/balance/mock"
	"go-leave/internal/events"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func employeeCreatedMessage(t *testing.T, event events.EmployeeCreatedEvent) kafkago.Message {
	t.Helper()
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return kafkago.Message{Topic: events.EmployeeCreatedTopic, Value: body}
}

func TestHandleEmployeeCreated(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.NewString()
	created := events.EmployeeCreatedEvent{
		EventType:  events.EmployeeCreatedEventType,
		EmployeeID: employeeID,
		FullName:   "Ana",
	}

	tests := []struct {
		name       string
		msg        func(t *testing.T) kafkago.Message
		seedErr    error
		expectSeed bool
		wantCommit bool
	}{
		{
			name:       "seeds balance",
			msg:        func(t *testing.T) kafkago.Message { return employeeCreatedMessage(t, created) },
			expectSeed: true,
			wantCommit: true,
		},
		{
			name:       "redelivery is committed",
			msg:        func(t *testing.T) kafkago.Message { return employeeCreatedMessage(t, created) },
			seedErr:    balanceerrors.ErrBalanceAlreadySeeded,
			expectSeed: true,
			wantCommit: true,
		},
		{
			name:       "bad employee id is dropped",
			msg:        func(t *testing.T) kafkago.Message { return employeeCreatedMessage(t, created) },
			seedErr:    balanceerrors.ErrInvalidEmployeeID,
			expectSeed: true,
			wantCommit: true,
		},
		{
			name:       "transient failure keeps the offset",
			msg:        func(t *testing.T) kafkago.Message { return employeeCreatedMessage(t, created) },
			seedErr:    errors.New("db down"),
			expectSeed: true,
			wantCommit: false,
		},
		{
			name:       "malformed payload",
			msg:        func(*testing.T) kafkago.Message { return kafkago.Message{Value: []byte("{")} },
			wantCommit: true,
		},
		{
			name: "other event type",
			msg: func(t *testing.T) kafkago.Message {
				return employeeCreatedMessage(t, events.EmployeeCreatedEvent{EventType: "employee_deleted", EmployeeID: employeeID})
			},
			wantCommit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := balanceMock.NewMockService(ctrl)

			if tt.expectSeed {
				svc.EXPECT().
					Seed(ctx, balance.SeedBalanceRequest{EmployeeID: employeeID, FullName: "Ana"}).
					Return(balance.BalanceResponse{}, tt.seedErr)
			}

			got := handleEmployeeCreated(ctx, tt.msg(t), svc, zap.NewNop())
			assert.Equal(t, tt.wantCommit, got)
		})
	}
}

type fakeReader struct {
	queue     []kafkago.Message
	committed []kafkago.Message
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.queue) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func TestConsumeEmployeeLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := balanceMock.NewMockService(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := uuid.NewString()
	second := uuid.NewString()
	reader := &fakeReader{
		queue: []kafkago.Message{
			employeeCreatedMessage(t, events.EmployeeCreatedEvent{EventType: events.EmployeeCreatedEventType, EmployeeID: first}),
			employeeCreatedMessage(t, events.EmployeeCreatedEvent{EventType: events.EmployeeCreatedEventType, EmployeeID: second}),
		},
		cancel: cancel,
	}

	svc.EXPECT().Seed(gomock.Any(), balance.SeedBalanceRequest{EmployeeID: first}).Return(balance.BalanceResponse{}, nil)
	svc.EXPECT().Seed(gomock.Any(), balance.SeedBalanceRequest{EmployeeID: second}).Return(balance.BalanceResponse{}, errors.New("db down"))

	ConsumeEmployeeLifecycle(ctx, reader, svc, zap.NewNop())

	assert.Len(t, reader.committed, 1)
}
