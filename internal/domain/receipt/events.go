package receipt

import "time"

// DepositLogEvent is emitted whenever an account records a deposit.
type DepositLogEvent struct {
	Account    string
	Concept    string
	Amount     int64
	OccurredAt time.Time
}

func (DepositLogEvent) EventName() string { return "receipt.deposit_log" }

func NewDepositLogEvent(r *Receipt) DepositLogEvent {
	return DepositLogEvent{
		Account:    r.Account,
		Concept:    r.Concept,
		Amount:     r.Amount,
		OccurredAt: r.RecordedAt,
	}
}
