package domain

import (
	"strconv"
	"strings"
)

// Collection group names. A document's group is the collection it lives in,
// regardless of its parent document.
const (
	CollectionClubs    = "clubs"
	CollectionBoats    = "boats"
	CollectionTrophies = "trophies"
	CollectionWinners  = "winners"
	CollectionSearches = "searches"
	CollectionResults  = "results"
)

// ClubPath returns the document path of a club.
func ClubPath(clubID string) string {
	return CollectionClubs + "/" + clubID
}

// ClubPrefix returns the path prefix shared by every document below a club.
func ClubPrefix(clubID string) string {
	return ClubPath(clubID) + "/"
}

// BoatsPath returns the collection path of a club's boats.
func BoatsPath(clubID string) string {
	return ClubPath(clubID) + "/" + CollectionBoats
}

// BoatPath returns the document path of a boat.
func BoatPath(clubID, boatID string) string {
	return BoatsPath(clubID) + "/" + boatID
}

// TrophiesPath returns the collection path of a club's trophies.
func TrophiesPath(clubID string) string {
	return ClubPath(clubID) + "/" + CollectionTrophies
}

// TrophyPath returns the document path of a trophy.
func TrophyPath(clubID, trophyID string) string {
	return TrophiesPath(clubID) + "/" + trophyID
}

// WinnersPath returns the collection path of a trophy's winners.
func WinnersPath(clubID, trophyID string) string {
	return TrophyPath(clubID, trophyID) + "/" + CollectionWinners
}

// WinnerPath returns the document path of a winner.
func WinnerPath(clubID, trophyID, winnerID string) string {
	return WinnersPath(clubID, trophyID) + "/" + winnerID
}

// SearchPath returns the document path of a search request.
func SearchPath(searchID string) string {
	return CollectionSearches + "/" + searchID
}

// SearchResultsPath returns the collection path of a search's result pages.
func SearchResultsPath(searchID string) string {
	return SearchPath(searchID) + "/" + CollectionResults
}

// SearchResultPath returns the document path of one result page.
func SearchResultPath(searchID string, page int) string {
	return SearchResultsPath(searchID) + "/" + strconv.Itoa(page)
}

// ParseBoatPath extracts the club and boat ids from a boat document path.
func ParseBoatPath(path string) (clubID, boatID string, ok bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 4 || parts[0] != CollectionClubs || parts[2] != CollectionBoats {
		return "", "", false
	}
	return parts[1], parts[3], true
}

// ParseSearchPath extracts the search id from a search document path.
func ParseSearchPath(path string) (searchID string, ok bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] != CollectionSearches {
		return "", false
	}
	return parts[1], true
}

// IndexedFields lists the equality-indexed fields per collection group.
// These are the fields the propagator and the search builder filter on.
func IndexedFields() map[string][]string {
	return map[string][]string{
		CollectionTrophies: {"boatId"},
		CollectionWinners:  {"boatId", "sail", "boatName", "parent.clubId", "parent.trophyId"},
	}
}

// ParseWinnerPath extracts the club, trophy and winner ids from a winner document path.
func ParseWinnerPath(path string) (parent WinnerParent, winnerID string, ok bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 6 || parts[0] != CollectionClubs || parts[2] != CollectionTrophies || parts[4] != CollectionWinners {
		return WinnerParent{}, "", false
	}
	return WinnerParent{ClubID: parts[1], TrophyID: parts[3]}, parts[5], true
}
