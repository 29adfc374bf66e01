package datagen

import (
	"fmt"
	"math"
	"strconv"
)

// FirstTimestamp is the ts of the first generated event, in epoch
// milliseconds (2018-11-01 13:46:12.796 UTC).
const FirstTimestamp int64 = 1541079972796

// NextSongPage is the page value of a song play event.
const NextSongPage = "NextSong"

// Event is one line of an event log file. Pointer fields are written as
// JSON null when unset.
type Event struct {
	Artist        *string  `json:"artist"`
	Auth          string   `json:"auth"`
	FirstName     *string  `json:"firstName"`
	Gender        *string  `json:"gender"`
	ItemInSession int      `json:"itemInSession"`
	LastName      *string  `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         string   `json:"level"`
	Location      *string  `json:"location"`
	Method        string   `json:"method"`
	Page          string   `json:"page"`
	Registration  *int64   `json:"registration"`
	SessionID     int      `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        int      `json:"status"`
	TS            int64    `json:"ts"`
	UserAgent     *string  `json:"userAgent"`
	UserID        *string  `json:"userId"`
}

// Song is the single record of a song catalog file.
type Song struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration"`
	Year            int      `json:"year"`
}

// Spec sizes a synthetic dataset.
type Spec struct {
	// EventCount is the total number of events.
	EventCount int

	// NextSongCount is how many of the events are song plays.
	NextSongCount int

	// SongCount is the number of catalog songs.
	SongCount int

	// UserCount is the number of distinct listeners.
	UserCount int

	// MatchRatio is the share of song plays whose title and artist match
	// a catalog song exactly.
	MatchRatio float64

	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64
}

// DefaultSpec returns a small dataset spec.
func DefaultSpec() Spec {
	return Spec{
		EventCount:    100,
		NextSongCount: 50,
		SongCount:     10,
		UserCount:     20,
		MatchRatio:    0.6,
		Seed:          1,
	}
}

// Validate checks the spec for consistency.
func (s Spec) Validate() error {
	if s.EventCount < 1 {
		return fmt.Errorf("event count must be at least 1")
	}
	if s.NextSongCount < 0 || s.NextSongCount > s.EventCount {
		return fmt.Errorf("next song count must be between 0 and %d", s.EventCount)
	}
	if s.SongCount < 1 {
		return fmt.Errorf("song count must be at least 1")
	}
	if s.UserCount < 1 {
		return fmt.Errorf("user count must be at least 1")
	}
	if s.MatchRatio < 0 || s.MatchRatio > 1 || math.IsNaN(s.MatchRatio) {
		return fmt.Errorf("match ratio must be between 0 and 1")
	}
	return nil
}

// Matched returns how many song plays reference a catalog song.
func (s Spec) Matched() int {
	return int(math.Round(s.MatchRatio * float64(s.NextSongCount)))
}

// Dataset is a generated event log and song catalog.
type Dataset struct {
	Events []Event
	Songs  []Song
}

// nameLength is the width of the staging name columns.
const nameLength = 15

type user struct {
	id           string
	firstName    string
	lastName     string
	gender       string
	level        string
	location     string
	userAgent    string
	registration int64
	session      int
	item         int
}

type pair struct {
	title  string
	artist string
}

var (
	otherPages   = []string{"Home", "Settings", "Help", "About", "Upgrade", "Downgrade", "Save Settings", "Submit Upgrade", "Logout", "Login"}
	otherWeights = []int{40, 5, 5, 3, 4, 3, 4, 2, 10, 8}
)

// Generate builds a dataset from spec.
//
// Event timestamps strictly increase from FirstTimestamp. Every song play
// carries a user id. The first Matched() plays reference a catalog song by
// title and artist; the remaining plays use title and artist pairs that
// match nothing in the catalog.
func Generate(spec Spec) (*Dataset, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset spec: %w", err)
	}

	f := NewFakerWithSeed(spec.Seed)
	if spec.Seed == 0 {
		f = NewFaker()
	}
	g := &generator{
		f:       f,
		catalog: make(map[pair]bool),
		ids:     make(map[string]bool),
	}

	ds := &Dataset{Songs: g.songs(spec.SongCount)}
	users := g.users(spec.UserCount)

	plays := make([]bool, spec.EventCount)
	for i := 0; i < spec.NextSongCount; i++ {
		plays[i] = true
	}
	Shuffle(f, plays)

	matched := spec.Matched()
	ts := FirstTimestamp
	nextSession := f.Int(100, 900)

	ds.Events = make([]Event, 0, spec.EventCount)
	for _, play := range plays {
		var e Event
		switch {
		case play:
			u := Choose(f, users)
			e = g.loggedIn(u, NextSongPage, "PUT")
			if matched > 0 {
				s := Choose(f, ds.Songs)
				e.Song, e.Artist, e.Length = ptr(s.Title), ptr(s.ArtistName), ptr(s.Duration)
				matched--
			} else {
				p := g.unmatchedPair()
				e.Song, e.Artist = ptr(p.title), ptr(p.artist)
				e.Length = ptr(Round(f.Float64(90, 420), 5))
			}

		case f.Chance(0.2):
			page := ChooseWeighted(f, []string{"Home", "Login", "Help", "About"}, []int{5, 4, 1, 1})
			method := "GET"
			if page == "Login" {
				method = "PUT"
			}
			e = Event{
				Auth:      "Logged Out",
				Level:     "free",
				Method:    method,
				Page:      page,
				SessionID: nextSession,
				Status:    200,
			}
			nextSession++

		default:
			u := Choose(f, users)
			page := ChooseWeighted(f, otherPages, otherWeights)
			method := "GET"
			if page == "Logout" || page == "Save Settings" || page == "Submit Upgrade" {
				method = "PUT"
			}
			e = g.loggedIn(u, page, method)
			if page == "Logout" || page == "Submit Upgrade" {
				e.Status = 307
			}
			if page == "Logout" {
				u.session, u.item = nextSession, 0
				nextSession++
			}
		}

		e.TS = ts
		ts += f.Int64(1, 900_000)
		ds.Events = append(ds.Events, e)
	}

	return ds, nil
}

type generator struct {
	f       *Faker
	catalog map[pair]bool
	ids     map[string]bool
}

func (g *generator) uniqueID(prefix string) string {
	for {
		id := g.f.CatalogID(prefix)
		if !g.ids[id] {
			g.ids[id] = true
			return id
		}
	}
}

func (g *generator) songs(n int) []Song {
	type artist struct {
		id, name, location string
		lat, lon           *float64
	}

	artists := make([]artist, (n+1)/2)
	names := make(map[string]bool)
	for i := range artists {
		name := g.f.ArtistName()
		for names[name] {
			name = g.f.ArtistName()
		}
		names[name] = true

		a := artist{id: g.uniqueID("AR"), name: name}
		if g.f.Chance(0.6) {
			a.location = g.f.Location()
			a.lat = ptr(Round(g.f.Latitude(), 5))
			a.lon = ptr(Round(g.f.Longitude(), 5))
		}
		artists[i] = a
	}

	songs := make([]Song, n)
	for i := range songs {
		a := artists[i%len(artists)]
		title := g.f.SongTitle()
		for g.catalog[pair{title, a.name}] {
			title = g.f.SongTitle()
		}
		g.catalog[pair{title, a.name}] = true

		year := 0
		if g.f.Chance(0.7) {
			year = g.f.Int(1960, 2018)
		}
		songs[i] = Song{
			NumSongs:        1,
			ArtistID:        a.id,
			ArtistLatitude:  a.lat,
			ArtistLongitude: a.lon,
			ArtistLocation:  a.location,
			ArtistName:      a.name,
			SongID:          g.uniqueID("SO"),
			Title:           title,
			Duration:        Round(g.f.Float64(60, 600), 5),
			Year:            year,
		}
	}
	return songs
}

func (g *generator) users(n int) []*user {
	users := make([]*user, n)
	for i := range users {
		level := "free"
		if g.f.Chance(0.3) {
			level = "paid"
		}
		users[i] = &user{
			id:           strconv.Itoa(i + 1),
			firstName:    Truncate(g.f.FirstName(), nameLength),
			lastName:     Truncate(g.f.LastName(), nameLength),
			gender:       g.f.Gender(),
			level:        level,
			location:     g.f.Location(),
			userAgent:    g.f.UserAgent(),
			registration: FirstTimestamp - g.f.Int64(86_400_000, 365*86_400_000),
			session:      g.f.Int(1, 99) * 10,
		}
	}
	return users
}

// unmatchedPair returns a title and artist that no catalog song has.
func (g *generator) unmatchedPair() pair {
	for {
		p := pair{title: g.f.SongTitle(), artist: g.f.ArtistName()}
		if !g.catalog[p] {
			return p
		}
	}
}

func (g *generator) loggedIn(u *user, page, method string) Event {
	e := Event{
		Auth:          "Logged In",
		FirstName:     ptr(u.firstName),
		Gender:        ptr(u.gender),
		ItemInSession: u.item,
		LastName:      ptr(u.lastName),
		Level:         u.level,
		Location:      ptr(u.location),
		Method:        method,
		Page:          page,
		Registration:  ptr(u.registration),
		SessionID:     u.session,
		Status:        200,
		UserAgent:     ptr(u.userAgent),
		UserID:        ptr(u.id),
	}
	u.item++
	return e
}

func ptr[T any](v T) *T {
	return &v
}
