//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen produces synthetic event logs and song catalogs laid out
// like the datasets the loader reads.
package datagen

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"
)

// Faker provides fake music-service data using gofakeit.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return &Faker{
		faker: gofakeit.New(uint64(time.Now().UnixNano())),
	}
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
	}
}

// FirstName generates a random first name.
func (f *Faker) FirstName() string {
	return f.faker.FirstName()
}

// LastName generates a random last name.
func (f *Faker) LastName() string {
	return f.faker.LastName()
}

// Gender returns "M" or "F".
func (f *Faker) Gender() string {
	if f.Bool() {
		return "M"
	}
	return "F"
}

// Location generates a "City, ST" location.
func (f *Faker) Location() string {
	return f.faker.City() + ", " + f.faker.StateAbr()
}

// UserAgent generates a browser user agent string.
func (f *Faker) UserAgent() string {
	return f.faker.UserAgent()
}

// SongTitle generates a two or three word title.
func (f *Faker) SongTitle() string {
	words := []string{f.faker.Adjective(), f.faker.Noun()}
	if f.Bool() {
		words = append([]string{f.faker.Verb()}, words...)
	}
	return titleCase(strings.Join(words, " "))
}

// ArtistName generates a band or performer name.
func (f *Faker) ArtistName() string {
	switch f.Int(0, 2) {
	case 0:
		return f.faker.FirstName() + " " + f.faker.LastName()
	case 1:
		return "The " + titleCase(f.faker.Adjective()+" "+f.faker.Noun()+"s")
	default:
		return titleCase(f.faker.Noun()) + " " + f.faker.LastName()
	}
}

// CatalogID generates an 18 character upper-case identifier with a two
// letter prefix, such as SOUPIRU12A6D4FA1E1.
func (f *Faker) CatalogID(prefix string) string {
	return prefix + strings.ToUpper(f.faker.LetterN(uint(18-len(prefix))))
}

// Latitude generates a latitude in degrees.
func (f *Faker) Latitude() float64 {
	return f.faker.Latitude()
}

// Longitude generates a longitude in degrees.
func (f *Faker) Longitude() float64 {
	return f.faker.Longitude()
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	return f.faker.IntRange(min, max)
}

// Int64 generates a random int64 between min and max (inclusive).
func (f *Faker) Int64(min, max int64) int64 {
	return int64(f.faker.IntRange(int(min), int(max)))
}

// Float64 generates a random float64 between min and max.
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Bool generates a random boolean.
func (f *Faker) Bool() bool {
	return f.faker.Bool()
}

// Chance returns true with probability p.
func (f *Faker) Chance(p float64) bool {
	return f.Float64(0, 1) < p
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.Int(0, len(items)-1)]
}

// ChooseWeighted returns a random element based on weights.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	if len(items) == 0 || len(weights) == 0 {
		var zero T
		return zero
	}

	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}

	r := f.Int(1, totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return items[i]
		}
	}

	return items[len(items)-1]
}

// Shuffle permutes items in place.
func Shuffle[T any](f *Faker, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := f.Int(0, i)
		items[i], items[j] = items[j], items[i]
	}
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Truncate shortens s to at most maxLen characters.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) > maxLen {
		return string(r[:maxLen])
	}
	return s
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
