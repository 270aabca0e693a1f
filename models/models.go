package models

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrInsufficientBalance = errors.New("insufficient HMT balance")
	ErrUnknownGenre        = errors.New("unknown genre")
	ErrEmptyProposal       = errors.New("proposal text is empty")
	ErrUnknownPage         = errors.New("unknown page")
)

const DefaultUsername = "HarmonyUser"

type Page string

const (
	PageDashboard Page = "dashboard"
	PageSegments  Page = "segments"
	PageDatabase  Page = "database"
)

// Pages lists the navigable views in sidebar order.
var Pages = []Page{PageDashboard, PageSegments, PageDatabase}

func (p Page) Title() string {
	switch p {
	case PageDashboard:
		return "Main Dashboard"
	case PageSegments:
		return "User Segments"
	case PageDatabase:
		return "Crypto & Hip-Hop Database"
	default:
		return ""
	}
}

func (p Page) Valid() bool {
	return p.Title() != ""
}

func ParsePage(s string) (Page, error) {
	p := Page(s)
	if !p.Valid() {
		return "", ErrUnknownPage
	}
	return p, nil
}

type SessionState struct {
	Balance     Amount
	MiningPower int
}

type Session struct {
	ID        string
	Username  string
	State     SessionState
	Page      Page
	Proposals []string
	Prices    []PricePoint
	CreatedAt time.Time
	LastSeen  time.Time
}

// Clone returns a copy that shares no slices with s.
func (s Session) Clone() Session {
	c := s
	c.Proposals = append([]string(nil), s.Proposals...)
	c.Prices = append([]PricePoint(nil), s.Prices...)
	return c
}

type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

type CryptoRow struct {
	Name              string  `json:"name"`
	Symbol            string  `json:"symbol"`
	MarketCapBillions float64 `json:"marketCapBillions"`
	PriceUSD          float64 `json:"priceUsd"`
}

type SongRow struct {
	Rank         int    `json:"rank"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	WeeksOnChart int    `json:"weeksOnChart"`
}

type Metric struct {
	Label string
	Value string
	Delta string
}

type Segment struct {
	Title       string
	Description string
}
