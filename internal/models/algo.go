package models

// AlgoInfo — статичное описание алгоритма для ALGO_STATUS и футера отчёта.
type AlgoInfo struct {
	Name     string
	Signal   string
	Status   string
	Risk     string
	Sessions []string
}
