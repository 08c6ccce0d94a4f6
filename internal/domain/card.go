package domain

// Suit identifies one of the four French suits.
type Suit int

const (
	SuitHearts Suit = iota
	SuitDiamonds
	SuitClubs
	SuitSpades
)

// Suits lists the suits in canonical enumeration order. Every deterministic
// tie-break in the engine (opening scan, opponent suit choice) follows it.
var Suits = [4]Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

var suitNames = [4]string{"hearts", "diamonds", "clubs", "spades"}

var suitLetters = [4]string{"H", "D", "C", "S"}

func (s Suit) String() string {
	if s < SuitHearts || s > SuitSpades {
		return "unknown"
	}
	return suitNames[s]
}

// Letter returns the single-letter suit code used in card IDs and on the wire.
func (s Suit) Letter() string {
	if s < SuitHearts || s > SuitSpades {
		return "?"
	}
	return suitLetters[s]
}

// SuitFromLetter resolves a single-letter suit code. ok is false for anything
// outside the four known codes.
func SuitFromLetter(letter string) (Suit, bool) {
	for _, s := range Suits {
		if suitLetters[s] == letter {
			return s, true
		}
	}
	return SuitHearts, false
}

// Rank identifies a card rank. RankNone is not a card rank; it marks the
// absent active rank while a wild play's suit override is in force.
type Rank int

const (
	RankNone Rank = iota
	RankAce
	RankTwo
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
)

// WildRank is the rank playable regardless of the active suit and rank.
// Playing it names a new active suit.
const WildRank = RankEight

var rankSymbols = [...]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

var rankNames = [...]string{"none", "ace", "2", "3", "4", "5", "6", "7", "8", "9", "10", "jack", "queen", "king"}

func (r Rank) String() string {
	if r < RankNone || r > RankKing {
		return "unknown"
	}
	return rankNames[r]
}

// Symbol returns the short rank code used in card IDs, e.g. "A" or "10".
func (r Rank) Symbol() string {
	if r < RankAce || r > RankKing {
		return "?"
	}
	return rankSymbols[r]
}

// Card is a single playing card. Immutable once created; its identity within
// a deck is fully determined by the suit and rank pair.
type Card struct {
	Suit Suit
	Rank Rank
}

// ID returns the card's stable identity, e.g. "7H" or "10S".
func (c Card) ID() string {
	return c.Rank.Symbol() + c.Suit.Letter()
}

// IsWild reports whether the card carries the wild rank.
func (c Card) IsWild() bool {
	return c.Rank == WildRank
}

func (c Card) String() string {
	return c.Rank.String() + " of " + c.Suit.String()
}

// CardByID finds the card with the given ID in hand. ok is false when no
// such card is held.
func CardByID(hand []Card, id string) (Card, bool) {
	for _, c := range hand {
		if c.ID() == id {
			return c, true
		}
	}
	return Card{}, false
}
