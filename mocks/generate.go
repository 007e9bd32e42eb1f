package mocks

//go:generate mockgen -destination=./mock_sender.go -package=mocks trade_ledger/internal/modules/alerts/service Sender
//go:generate mockgen -destination=./mock_store.go -package=mocks trade_ledger/internal/modules/ledger/store Store
