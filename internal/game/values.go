package game

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/shopspring/decimal"
)

// Limits is the validation configuration of the catalog bounded context.
// It is constructed once at wiring time and passed in explicitly; there is
// no global validator state.
type Limits struct {
	MaxNameLength        int
	MaxDescriptionLength int
	MaxPrice             decimal.Decimal
}

func DefaultLimits() Limits {
	return Limits{
		MaxNameLength:        200,
		MaxDescriptionLength: 4000,
		MaxPrice:             decimal.NewFromInt(1000),
	}
}

// Price is the catalog price of a game. Immutable; constructed only through
// NewPrice, so no Price can exist in an invalid state.
type Price struct {
	amount decimal.Decimal
}

func NewPrice(amount decimal.Decimal, limits Limits) (Price, error) {
	var c eventsourcing.Collector
	if amount.IsNegative() {
		c.Add("Price.GreaterThanOrEqualToZero", "price must be greater than or equal to zero")
	}
	if amount.GreaterThan(limits.MaxPrice) {
		c.Add("Price.LessThanOrEqualToMax", fmt.Sprintf("price must not exceed %s", limits.MaxPrice))
	}
	if err := c.Err(); err != nil {
		return Price{}, err
	}
	return Price{amount: amount}, nil
}

// priceFromStored rebuilds a Price from an event payload. Events are facts;
// they are not re-validated on replay.
func priceFromStored(s string) (Price, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("%w: bad price %q", eventsourcing.ErrCorruptStream, s)
	}
	return Price{amount: amount}, nil
}

func (p Price) Amount() decimal.Decimal { return p.amount }
func (p Price) String() string          { return p.amount.String() }
func (p Price) Equal(o Price) bool      { return p.amount.Equal(o.amount) }

// AgeRating is an ESRB-style rating code.
type AgeRating struct {
	code string
}

var ageRatingCodes = []string{"E", "E10", "T", "M", "AO"}

func NewAgeRating(code string) (AgeRating, error) {
	if !slices.Contains(ageRatingCodes, code) {
		return AgeRating{}, eventsourcing.Validation("AgeRating.Unknown",
			fmt.Sprintf("age rating must be one of %v", ageRatingCodes))
	}
	return AgeRating{code: code}, nil
}

func (r AgeRating) Code() string { return r.code }

// Rating is an aggregate review score on a 0 to 10 scale.
type Rating struct {
	value float64
}

func NewRating(value float64) (Rating, error) {
	if value < 0 || value > 10 {
		return Rating{}, eventsourcing.Validation("Rating.OutOfRange", "rating must be between 0 and 10")
	}
	return Rating{value: value}, nil
}

func (r Rating) Value() float64 { return r.value }

// DiskSize is the install footprint in gigabytes.
type DiskSize struct {
	gb float64
}

func NewDiskSize(gb float64) (DiskSize, error) {
	if gb <= 0 {
		return DiskSize{}, eventsourcing.Validation("DiskSize.GreaterThanZero", "disk size must be greater than zero")
	}
	return DiskSize{gb: gb}, nil
}

func (d DiskSize) Gigabytes() float64 { return d.gb }

// DetailsInput is the raw, unvalidated detail fields as they arrive on a
// command.
type DetailsInput struct {
	Description  string
	Website      string
	Genres       []string
	Platforms    []string
	Mode         string
	Distribution string
}

// GameDetails is the validated descriptive block of a game.
type GameDetails struct {
	description  string
	website      string
	genres       []string
	platforms    []string
	mode         string
	distribution string
}

var (
	knownPlatforms     = []string{"PC", "PlayStation", "Xbox", "Switch", "Mobile"}
	knownModes         = []string{"Singleplayer", "Multiplayer", "Both"}
	knownDistributions = []string{"Digital", "Physical", "Both"}
)

func NewGameDetails(input DetailsInput, limits Limits) (GameDetails, error) {
	var c eventsourcing.Collector

	if len(input.Description) > limits.MaxDescriptionLength {
		c.Add("GameDetails.DescriptionTooLong",
			fmt.Sprintf("description must not exceed %d characters", limits.MaxDescriptionLength))
	}
	if input.Website != "" {
		if u, err := url.Parse(input.Website); err != nil || u.Scheme == "" || u.Host == "" {
			c.Add("GameDetails.InvalidWebsite", "website must be an absolute URL")
		}
	}
	if len(input.Platforms) == 0 {
		c.Add("GameDetails.PlatformsRequired", "at least one platform is required")
	}
	for _, p := range input.Platforms {
		if !slices.Contains(knownPlatforms, p) {
			c.Add("GameDetails.UnknownPlatform", fmt.Sprintf("unknown platform %q", p))
		}
	}
	if !slices.Contains(knownModes, input.Mode) {
		c.Add("GameDetails.UnknownMode", fmt.Sprintf("mode must be one of %v", knownModes))
	}
	if !slices.Contains(knownDistributions, input.Distribution) {
		c.Add("GameDetails.UnknownDistribution", fmt.Sprintf("distribution must be one of %v", knownDistributions))
	}

	if err := c.Err(); err != nil {
		return GameDetails{}, err
	}
	return GameDetails{
		description:  input.Description,
		website:      input.Website,
		genres:       slices.Clone(input.Genres),
		platforms:    slices.Clone(input.Platforms),
		mode:         input.Mode,
		distribution: input.Distribution,
	}, nil
}

func detailsFromStored(description, website string, genres, platforms []string, mode, distribution string) GameDetails {
	return GameDetails{
		description:  description,
		website:      website,
		genres:       slices.Clone(genres),
		platforms:    slices.Clone(platforms),
		mode:         mode,
		distribution: distribution,
	}
}

func (d GameDetails) Description() string  { return d.description }
func (d GameDetails) Website() string      { return d.website }
func (d GameDetails) Genres() []string     { return slices.Clone(d.genres) }
func (d GameDetails) Platforms() []string  { return slices.Clone(d.platforms) }
func (d GameDetails) Mode() string         { return d.mode }
func (d GameDetails) Distribution() string { return d.distribution }

func (d GameDetails) Equal(o GameDetails) bool {
	return d.description == o.description &&
		d.website == o.website &&
		slices.Equal(d.genres, o.genres) &&
		slices.Equal(d.platforms, o.platforms) &&
		d.mode == o.mode &&
		d.distribution == o.distribution
}

// SystemRequirements holds the minimum and recommended hardware text.
type SystemRequirements struct {
	minimum     string
	recommended string
}

func NewSystemRequirements(minimum, recommended string) (SystemRequirements, error) {
	if minimum == "" {
		return SystemRequirements{}, eventsourcing.Validation("SystemRequirements.MinimumRequired",
			"minimum requirements are required")
	}
	return SystemRequirements{minimum: minimum, recommended: recommended}, nil
}

func (s SystemRequirements) Minimum() string     { return s.minimum }
func (s SystemRequirements) Recommended() string { return s.recommended }

// DeveloperInfo names who built and who publishes the game.
type DeveloperInfo struct {
	developer string
	publisher string
}

func NewDeveloperInfo(developer, publisher string) (DeveloperInfo, error) {
	if developer == "" {
		return DeveloperInfo{}, eventsourcing.Validation("DeveloperInfo.DeveloperRequired",
			"developer name is required")
	}
	return DeveloperInfo{developer: developer, publisher: publisher}, nil
}

func (d DeveloperInfo) Developer() string { return d.developer }
func (d DeveloperInfo) Publisher() string { return d.publisher }

// GameStatus tracks the release lifecycle. A freshly created game has no
// status until the first explicit status change.
type GameStatus string

const (
	StatusUnset         GameStatus = ""
	StatusInDevelopment GameStatus = "InDevelopment"
	StatusEarlyAccess   GameStatus = "EarlyAccess"
	StatusReleased      GameStatus = "Released"
	StatusDiscontinued  GameStatus = "Discontinued"
)

var gameStatuses = []GameStatus{StatusInDevelopment, StatusEarlyAccess, StatusReleased, StatusDiscontinued}

func ParseGameStatus(s string) (GameStatus, error) {
	status := GameStatus(s)
	if !slices.Contains(gameStatuses, status) {
		return StatusUnset, eventsourcing.Validation("GameStatus.Unknown",
			fmt.Sprintf("status must be one of %v", gameStatuses))
	}
	return status, nil
}

func validateName(name string, limits Limits, c *eventsourcing.Collector) {
	if name == "" {
		c.Add("Game.NameRequired", "name is required")
	}
	if len(name) > limits.MaxNameLength {
		c.Add("Game.NameTooLong", fmt.Sprintf("name must not exceed %d characters", limits.MaxNameLength))
	}
}
