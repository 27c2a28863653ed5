// Package generator synthesises transaction ledgers with planted laundering
// patterns hidden in random background traffic.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

// Planted lists the patterns deliberately inserted into a dataset.
type Planted struct {
	Cycles         [][]string
	ShellChains    [][]string
	SmurfReceivers []string
}

// Dataset is a timestamp-ordered ledger plus what was planted in it.
type Dataset struct {
	Transactions []domain.Transaction
	Planted      Planted
}

// Generator produces reproducible synthetic ledgers.
type Generator struct {
	cfg  Config
	rand *rand.Rand
	txs  []domain.Transaction
}

// New returns a configured Generator instance. Zero fields take defaults;
// negative pattern counts disable that pattern. Span is at least one second.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumAccounts <= 0 {
		cfg.NumAccounts = def.NumAccounts
	}
	if cfg.NumTransactions < 0 {
		cfg.NumTransactions = 0
	}
	if cfg.Span <= 0 {
		cfg.Span = def.Span
	}
	if cfg.Span < time.Second {
		cfg.Span = time.Second
	}
	if cfg.Start.IsZero() {
		cfg.Start = def.Start
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesises the ledger. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	g.txs = g.txs[:0]
	var planted Planted

	for i := 0; i < g.cfg.NumTransactions; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return Dataset{}, err
			}
		}
		sender := g.rand.Intn(g.cfg.NumAccounts)
		receiver := g.rand.Intn(g.cfg.NumAccounts)
		if sender == receiver {
			receiver = (receiver + 1) % g.cfg.NumAccounts
		}
		g.add(accountID("ACC", sender), accountID("ACC", receiver), g.amount(10, 5000), g.instant())
	}

	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}
	for i := 0; i < g.cfg.Cycles; i++ {
		planted.Cycles = append(planted.Cycles, g.plantCycle(i))
	}
	for i := 0; i < g.cfg.ShellChains; i++ {
		planted.ShellChains = append(planted.ShellChains, g.plantShellChain(i))
	}
	for i := 0; i < g.cfg.SmurfReceivers; i++ {
		planted.SmurfReceivers = append(planted.SmurfReceivers, g.plantSmurfing(i))
	}

	sort.SliceStable(g.txs, func(i, j int) bool { return g.txs[i].Timestamp.Before(g.txs[j].Timestamp) })
	out := make([]domain.Transaction, len(g.txs))
	for i, tx := range g.txs {
		tx.ID = fmt.Sprintf("TX-%07d", i+1)
		out[i] = tx
	}
	return Dataset{Transactions: out, Planted: planted}, nil
}

// plantCycle moves a slowly shrinking amount around a loop of 3 to 5 accounts.
func (g *Generator) plantCycle(n int) []string {
	size := 3 + g.rand.Intn(3)
	members := make([]string, size)
	for i := range members {
		members[i] = accountID(fmt.Sprintf("CYC%02d", n), i)
	}

	ts := g.instant()
	amount := g.amount(5000, 20000)
	fee := decimal.NewFromFloat(0.98)
	for i, from := range members {
		to := members[(i+1)%size]
		g.add(from, to, amount, ts)
		amount = amount.Mul(fee).Round(2)
		ts = ts.Add(time.Duration(1+g.rand.Intn(6)) * time.Hour)
	}
	return members
}

// plantShellChain layers funds through three low-activity intermediaries.
func (g *Generator) plantShellChain(n int) []string {
	prefix := fmt.Sprintf("SHL%02d", n)
	chain := []string{
		prefix + "_SRC",
		accountID(prefix, 1),
		accountID(prefix, 2),
		accountID(prefix, 3),
		prefix + "_DST",
	}

	ts := g.instant()
	amount := g.amount(2000, 9000)
	for i := 0; i+1 < len(chain); i++ {
		g.add(chain[i], chain[i+1], amount, ts)
		amount = amount.Sub(g.amount(5, 50))
		ts = ts.Add(time.Duration(30+g.rand.Intn(240)) * time.Minute)
	}
	return chain
}

// plantSmurfing sends 10 to 15 small deposits to one receiver within a day.
func (g *Generator) plantSmurfing(n int) string {
	receiver := fmt.Sprintf("SMF%02d_MULE", n)
	count := 10 + g.rand.Intn(6)
	ts := g.instant()
	for i := 0; i < count; i++ {
		g.add(accountID(fmt.Sprintf("SMF%02d", n), i), receiver, g.amount(100, 950), ts)
		ts = ts.Add(time.Duration(g.rand.Intn(90)+1) * time.Minute)
	}
	return receiver
}

func (g *Generator) add(from, to string, amount decimal.Decimal, ts time.Time) {
	g.txs = append(g.txs, domain.Transaction{SenderID: from, ReceiverID: to, Amount: amount, Timestamp: ts})
}

func (g *Generator) amount(lo, hi int64) decimal.Decimal {
	cents := lo*100 + g.rand.Int63n((hi-lo)*100+1)
	return decimal.New(cents, -2)
}

func (g *Generator) instant() time.Time {
	return g.cfg.Start.Add(time.Duration(g.rand.Int63n(int64(g.cfg.Span) / int64(time.Second))) * time.Second)
}

func accountID(prefix string, n int) string {
	return fmt.Sprintf("%s_%05d", prefix, n)
}
