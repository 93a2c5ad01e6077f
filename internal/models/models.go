package models

import "time"

// DrinkType classifies a logged drink. The free-form drink name lives on the
// log itself; the type drives analytics grouping.
type DrinkType string

const (
	DrinkBeer     DrinkType = "beer"
	DrinkWine     DrinkType = "wine"
	DrinkCocktail DrinkType = "cocktail"
	DrinkShot     DrinkType = "shot"
	DrinkCider    DrinkType = "cider"
	DrinkSpirit   DrinkType = "spirit"
	DrinkOther    DrinkType = "other"
)

// DrinkTypeLabels maps type values to display names.
var DrinkTypeLabels = map[DrinkType]string{
	DrinkBeer:     "Beer",
	DrinkWine:     "Wine",
	DrinkCocktail: "Cocktail",
	DrinkShot:     "Shot",
	DrinkCider:    "Cider",
	DrinkSpirit:   "Spirit",
	DrinkOther:    "Other",
}

// ValidDrinkType reports whether t is a known drink type.
func ValidDrinkType(t DrinkType) bool {
	_, ok := DrinkTypeLabels[t]
	return ok
}

// Label returns the display name for a drink type.
func (t DrinkType) Label() string {
	if l, ok := DrinkTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// User represents an account. FriendCount and DrinkCount are denormalized
// counters kept in the same transaction as the rows they track.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	AvatarKey    *string   `json:"-"`
	FriendCount  int       `json:"friend_count"`
	DrinkCount   int       `json:"drink_count"`
	ShowcaseIDs  []string  `json:"showcase_ids"`
	APNSToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// DrinkLog represents a single logged drink with its photo.
type DrinkLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PhotoKey  string    `json:"-"`
	DrinkType DrinkType `json:"drink_type"`
	DrinkName *string   `json:"drink_name,omitempty"`
	Caption   *string   `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendshipStatus is the lifecycle state of a friendship edge.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipRejected FriendshipStatus = "rejected"
)

// Friendship is stored as one directional row per unordered user pair.
// The direction records who asked; acceptance makes the edge symmetric in
// effect for both parties.
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	AddresseeID string           `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// FriendRequest is a pending friendship edge joined with the profile of
// the other party (the requester for incoming lists, the addressee for
// outgoing ones).
type FriendRequest struct {
	Friendship Friendship `json:"friendship"`
	User       User       `json:"user"`
}

// Cheer records that a user cheered a drink log. One row per (log, user);
// Seen drives the unseen-cheers badge for the log's owner.
type Cheer struct {
	ID         string    `json:"id"`
	DrinkLogID string    `json:"drink_log_id"`
	UserID     string    `json:"user_id"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"created_at"`
}

// CheerState is the per-post view of cheers for a given viewer.
type CheerState struct {
	Count   int  `json:"count"`
	Cheered bool `json:"cheered"`
}

// AchievementTier is the difficulty tier of a medal.
type AchievementTier string

const (
	TierBronze AchievementTier = "bronze"
	TierSilver AchievementTier = "silver"
	TierGold   AchievementTier = "gold"
)

// Requirement kinds understood by the unlock evaluator.
const (
	ReqTotalLogs      = "total_logs"
	ReqStreakDays     = "streak_days"
	ReqDistinctTypes  = "distinct_types"
	ReqBestDay        = "best_day"
	ReqFriendCount    = "friend_count"
	ReqCheersReceived = "cheers_received"
)

// Achievement is a medal definition from the seeded catalog.
type Achievement struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Tier             AchievementTier `json:"tier"`
	Icon             string          `json:"icon"`
	RequirementKind  string          `json:"requirement_kind"`
	RequirementValue int             `json:"requirement_value"`
	SortOrder        int             `json:"sort_order"`
}

// UserAchievement marks a medal as unlocked for a user.
type UserAchievement struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}
