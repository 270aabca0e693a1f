package service

import (
	"fmt"
	"strings"

	"harmonychain/models"
)

const (
	DashboardTitle = "McM's HarmonyChain Dashboard"
	Tagline        = "Empowering artists and producers through blockchain technology. [McM]"
	Footer         = "© 2023 McM's HarmonyChain. All rights reserved."
	ChartTitle     = "HMT Token Price (Last 30 Days)"
)

const developerSnippet = `# Sample API call
import requests

api_url = "https://api.harmonychain.io/v1"
response = requests.get(f"{api_url}/user/{user_id}")
user_data = response.json()`

type NavItem struct {
	Page   models.Page
	Title  string
	Active bool
}

type PageView struct {
	Title           string
	Tagline         string
	Footer          string
	Page            models.Page
	Nav             []NavItem
	Username        string
	Balance         string
	MiningPower     int
	Messages        []string
	SidebarMessages []string
	Errors          []string

	Dashboard *DashboardView
	Segments  *SegmentsView
	Database  *DatabaseView
}

type DashboardView struct {
	Genres           []string
	SelectedGenre    string
	Chart            Chart
	Tickers          []models.Metric
	Stats            []models.Metric
	Proposals        []string
	DeveloperSnippet string
}

type SegmentsView struct {
	Heading  string
	Intro    string
	Segments []models.Segment
	Closing  string
}

type CryptoDisplay struct {
	Name      string
	Symbol    string
	MarketCap string
	Price     string
}

type DatabaseView struct {
	Heading string
	Intro   string
	Cryptos []CryptoDisplay
	Songs   []models.SongRow
	Closing string
}

type ChartMarker struct {
	X, Y  float64
	Label string
}

// Chart is a line chart already projected into SVG user space.
type Chart struct {
	Title   string
	Width   int
	Height  int
	Points  string
	Markers []ChartMarker
	YTicks  []ChartMarker
	XTicks  []ChartMarker
}

// RenderInput is everything one redraw depends on.
type RenderInput struct {
	Session       models.Session
	Prices        []models.PricePoint
	Outcome       Outcome
	SelectedGenre string
	Errors        []string
	// Page, when set, is drawn instead of the session's current page.
	Page models.Page
}

// Render maps state and generated data to the widgets of the selected page.
// It has no side effects.
func Render(in RenderInput) PageView {
	s := in.Session
	page := in.Page
	if !page.Valid() {
		page = s.Page
	}
	if !page.Valid() {
		page = models.PageDashboard
	}

	v := PageView{
		Title:           DashboardTitle,
		Tagline:         Tagline,
		Footer:          Footer,
		Page:            page,
		Username:        s.Username,
		Balance:         s.State.Balance.String(),
		MiningPower:     s.State.MiningPower,
		Messages:        in.Outcome.Messages,
		SidebarMessages: in.Outcome.SidebarMessages,
		Errors:          in.Errors,
	}
	for _, p := range models.Pages {
		v.Nav = append(v.Nav, NavItem{Page: p, Title: p.Title(), Active: p == page})
	}

	switch page {
	case models.PageDashboard:
		selected := in.SelectedGenre
		if !knownGenre(selected) {
			selected = genres[0]
		}
		v.Dashboard = &DashboardView{
			Genres:           Genres(),
			SelectedGenre:    selected,
			Chart:            BuildChart(in.Prices, 720, 260),
			Tickers:          TickerMetrics(),
			Stats:            PlatformStats(),
			Proposals:        append([]string(nil), s.Proposals...),
			DeveloperSnippet: developerSnippet,
		}
	case models.PageSegments:
		v.Segments = &SegmentsView{
			Heading:  "User Segments",
			Intro:    "Explore different roles within McM's HarmonyChain ecosystem.",
			Segments: Segments(),
			Closing:  "Select the segment that best represents your role within McM's HarmonyChain to get started.",
		}
	case models.PageDatabase:
		db := &DatabaseView{
			Heading: "Crypto & Hip-Hop Database Management System",
			Intro:   "Manage and explore data related to cryptocurrencies and top hip-hop tracks.",
			Songs:   TopSongs(),
			Closing: "Manage your crypto investments and explore the latest in hip-hop. Stay updated with the trends in both worlds.",
		}
		for _, c := range Cryptocurrencies() {
			db.Cryptos = append(db.Cryptos, CryptoDisplay{
				Name:      c.Name,
				Symbol:    c.Symbol,
				MarketCap: FormatBillions(c.MarketCapBillions),
				Price:     FormatUSD(c.PriceUSD),
			})
		}
		v.Database = db
	}
	return v
}

const chartPad = 40.0

// BuildChart projects the series onto a fixed 0.90..1.10 price axis.
func BuildChart(points []models.PricePoint, width, height int) Chart {
	c := Chart{Title: ChartTitle, Width: width, Height: height}
	if len(points) == 0 {
		return c
	}

	lo := float64(DefaultMinCents) / 100
	hi := float64(DefaultMaxCents) / 100
	for _, p := range points {
		if p.Price < lo {
			lo = p.Price
		}
		if p.Price > hi {
			hi = p.Price
		}
	}

	plotW := float64(width) - 2*chartPad
	plotH := float64(height) - 2*chartPad
	project := func(i int, price float64) (float64, float64) {
		x := chartPad
		if len(points) > 1 {
			x += float64(i) * plotW / float64(len(points)-1)
		}
		y := chartPad + (hi-price)/(hi-lo)*plotH
		return x, y
	}

	coords := make([]string, 0, len(points))
	for i, p := range points {
		x, y := project(i, p.Price)
		coords = append(coords, fmt.Sprintf("%.1f,%.1f", x, y))
		c.Markers = append(c.Markers, ChartMarker{
			X:     x,
			Y:     y,
			Label: fmt.Sprintf("%s: %.2f", p.Date.Format("Jan 2, 2006"), p.Price),
		})
	}
	c.Points = strings.Join(coords, " ")

	for _, price := range []float64{lo, (lo + hi) / 2, hi} {
		_, y := project(0, price)
		c.YTicks = append(c.YTicks, ChartMarker{X: chartPad - 6, Y: y, Label: fmt.Sprintf("%.2f", price)})
	}
	for _, i := range []int{0, len(points) / 2, len(points) - 1} {
		x, _ := project(i, lo)
		c.XTicks = append(c.XTicks, ChartMarker{X: x, Y: float64(height) - chartPad + 18, Label: points[i].Date.Format("Jan 2")})
	}
	return c
}
