package service

import (
	"math/rand/v2"
	"time"

	"harmonychain/models"
)

// Randomizer draws uniformly from [0, n). *rand.Rand satisfies it.
type Randomizer interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRandomizer uses the process-wide source and is safe for
// concurrent use.
var DefaultRandomizer Randomizer = globalRand{}

const (
	DefaultPriceDays = 30
	DefaultMinCents  = 90
	DefaultMaxCents  = 110
)

// Market generates mock HMT price history inside a fixed band.
type Market struct {
	Days     int
	MinCents int
	MaxCents int
	Rand     Randomizer
}

func DefaultMarket(rnd Randomizer) Market {
	return Market{
		Days:     DefaultPriceDays,
		MinCents: DefaultMinCents,
		MaxCents: DefaultMaxCents,
		Rand:     rnd,
	}
}

// Series returns m.Days daily points ending on end's calendar day. Every
// price is drawn independently from [MinCents, MaxCents] / 100.
func (m Market) Series(end time.Time) []models.PricePoint {
	if m.Days <= 0 {
		return nil
	}
	rnd := m.Rand
	if rnd == nil {
		rnd = DefaultRandomizer
	}
	spread := m.MaxCents - m.MinCents + 1
	last := startOfDay(end)
	points := make([]models.PricePoint, m.Days)
	for i := range points {
		cents := m.MinCents + rnd.IntN(spread)
		points[i] = models.PricePoint{
			Date:  last.AddDate(0, 0, i-(m.Days-1)),
			Price: float64(cents) / 100,
		}
	}
	return points
}

// GeneratePriceSeries draws a series in the default 0.90..1.10 band.
func GeneratePriceSeries(end time.Time, days int, rnd Randomizer) []models.PricePoint {
	m := DefaultMarket(rnd)
	m.Days = days
	return m.Series(end)
}

// seriesCurrent reports whether the stored series still ends today.
func seriesCurrent(points []models.PricePoint, days int, now time.Time) bool {
	if len(points) != days || days == 0 {
		return false
	}
	return points[len(points)-1].Date.Equal(startOfDay(now))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var genres = []string{"Pop", "Rock", "Jazz", "Classical", "Electronic"}

func Genres() []string {
	return append([]string(nil), genres...)
}

func knownGenre(g string) bool {
	for _, v := range genres {
		if v == g {
			return true
		}
	}
	return false
}

var cryptocurrencies = []models.CryptoRow{
	{Name: "Bitcoin", Symbol: "BTC", MarketCapBillions: 900, PriceUSD: 100000},
	{Name: "Ethereum", Symbol: "ETH", MarketCapBillions: 400, PriceUSD: 10000},
	{Name: "Beatcoin", Symbol: "BTCN", MarketCapBillions: 100, PriceUSD: 1000},
	{Name: "Ripple", Symbol: "XRP", MarketCapBillions: 40, PriceUSD: 0.9},
	{Name: "Litecoin", Symbol: "LTC", MarketCapBillions: 20, PriceUSD: 200},
	{Name: "Cardano", Symbol: "ADA", MarketCapBillions: 15, PriceUSD: 1.5},
	{Name: "Polkadot", Symbol: "DOT", MarketCapBillions: 10, PriceUSD: 8},
	{Name: "Solana", Symbol: "SOL", MarketCapBillions: 8, PriceUSD: 120},
	{Name: "Chainlink", Symbol: "LINK", MarketCapBillions: 7, PriceUSD: 7},
	{Name: "Dogecoin", Symbol: "DOGE", MarketCapBillions: 6, PriceUSD: 0.1},
}

func Cryptocurrencies() []models.CryptoRow {
	return append([]models.CryptoRow(nil), cryptocurrencies...)
}

var weeksOnChart = []int{12, 8, 15, 22, 5, 7, 19, 10, 6, 13}

func TopSongs() []models.SongRow {
	rows := make([]models.SongRow, len(weeksOnChart))
	for i, w := range weeksOnChart {
		rows[i] = models.SongRow{
			Rank:         i + 1,
			Title:        "Song " + string(rune('A'+i)),
			Artist:       "Artist " + itoa(i+1),
			WeeksOnChart: w,
		}
	}
	return rows
}

// TickerMetrics shows the three headline coins from the crypto table.
func TickerMetrics() []models.Metric {
	var out []models.Metric
	for _, c := range cryptocurrencies[:3] {
		out = append(out, models.Metric{Label: c.Name, Value: FormatUSD(c.PriceUSD)})
	}
	return out
}

func PlatformStats() []models.Metric {
	return []models.Metric{
		{Label: "Total Users", Value: FormatCount(10532), Delta: "+123"},
		{Label: "Active Miners", Value: FormatCount(3217), Delta: "-59"},
		{Label: "Songs Streamed Today", Value: FormatCount(1532891), Delta: "+12%"},
	}
}

func Segments() []models.Segment {
	return []models.Segment{
		{
			Title:       "Artist / Business",
			Description: "Connect with fans, sell music directly, and manage your business operations.",
		},
		{
			Title:       "Artist and Producer / Business Producer",
			Description: "Access advanced tools for collaboration and production. Monetize your creative work efficiently.",
		},
		{
			Title:       "Miners",
			Description: "Contribute to the network's security and earn HMT tokens through mining operations.",
		},
	}
}
