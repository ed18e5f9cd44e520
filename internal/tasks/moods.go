package tasks

import (
	"regexp"
	"slices"
	"strings"
)

// DefaultMood is used when no mood is given and for the patterns of unknown moods.
const DefaultMood = "happy"

// moodPatterns maps each mood to the genre fragments that suit it.
var moodPatterns = map[string][]string{
	"happy":        {"pop", "dance", "disco", "funk", "upbeat", "feelgood", "sunshine", "bubblegum", "indie pop"},
	"chill":        {"chill", "lo[- ]?fi", "acoustic", "ambient", "downtempo", "soft", "smooth", "bossa", "mellow", "laid[- ]?back"},
	"pumped":       {"edm", "trap", "house", "techno", "metal", "hardstyle", "dubstep", "industrial", "big room", "festival"},
	"melancholic":  {"indie", "sad", "dreampop", "emo", "shoegaze", "slowcore", "darkwave", "alternative", "post[- ]?punk"},
	"romantic":     {"r&b", "soul", "ballad", "romance", "latin pop", "soft rock", "acoustic", "love", "smooth", "slow jam"},
	"nostalgic":    {"retro", "80s", "90s", "vintage", "synthwave", "classic", "throwback", "vaporwave", "oldies", "blues"},
	"energetic":    {"workout", "gym", "adrenaline", "power", "fast", "hype", "hard rock", "uptempo", "electro", "speed"},
	"peaceful":     {"meditation", "ambient", "spa", "calm", "serene", "instrumental", "piano", "harp", "new age", "zen"},
	"dark":         {"gothic", "industrial", "black metal", "darkwave", "horror", "eerie", "brooding", "doom", "minimal"},
	"motivated":    {"inspiring", "workout", "anthem", "goal", "triumph", "victory", "epic", "empowering", "pop rock"},
	"sad":          {"heartbreak", "emotional", "blues", "lament", "slow", "crying", "melancholy", "breakup", "sentimental"},
	"angry":        {"punk", "hardcore", "metalcore", "thrash", "rage", "aggressive", "raw", "screamo", "industrial"},
	"relaxed":      {"lounge", "jazz", "chillout", "downtempo", "lo[- ]?fi", "acoustic", "smooth jazz", "easy listening"},
	"hopeful":      {"uplifting", "inspirational", "gospel", "anthem", "bright", "joy", "cinematic", "victory", "orchestral"},
	"lonely":       {"sad", "piano", "ballad", "slow", "isolation", "ambient", "minimal", "heartbreak", "acoustic"},
	"mysterious":   {"noir", "dark jazz", "suspense", "cinematic", "eerie", "synth", "industrial", "experimental"},
	"gritty":       {"rap", "drill", "trap", "underground", "street", "hard", "old school", "east coast", "grime"},
	"groovy":       {"funk", "soul", "r&b", "groove", "disco", "jam", "neo soul", "smooth", "jazzy"},
	"wild":         {"party", "club", "edm", "festival", "dancehall", "reggaeton", "rave", "hardstyle", "electro"},
	"epic":         {"orchestral", "cinematic", "trailer", "score", "heroic", "fantasy", "powerful", "soundtrack"},
	"focused":      {"study", "concentration", "ambient", "chillhop", "lo[- ]?fi", "instrumental", "minimal", "beats"},
	"funny":        {"parody", "comedy", "novelty", "meme", "silly", "weirdcore", "quirky", "upbeat"},
	"spiritual":    {"worship", "gospel", "hymn", "christian", "choir", "mantra", "meditation", "sacred"},
	"rebellious":   {"punk", "grunge", "metal", "alternative", "rock", "indie", "underground", "riot", "garage"},
	"cozy":         {"acoustic", "folk", "lo[- ]?fi", "soft", "singer[- ]?songwriter", "bedroom pop", "campfire", "intimate"},
	"adventurous":  {"world", "folk", "celtic", "tribal", "latin", "travel", "afrobeat", "fusion"},
	"playful":      {"upbeat", "bubblegum", "k[- ]?pop", "electro pop", "indie pop", "cute", "bright", "cheerful"},
	"mellow":       {"smooth", "chill", "acoustic", "downtempo", "r&b", "soft", "bossa", "jazz", "calm"},
	"party":        {"edm", "club", "dance", "reggaeton", "pop", "trap", "techno", "festival", "anthem"},
	"sentimental":  {"nostalgic", "love", "acoustic", "piano", "emotional", "heartfelt", "crooner"},
	"country":      {"country", "americana", "folk", "bluegrass", "outlaw", "southern rock"},
	"spooky":       {"halloween", "horror", "dark", "eerie", "gothic", "synth", "cinematic", "minor"},
	"heroic":       {"epic", "orchestral", "soundtrack", "battle", "fantasy", "score", "triumphant"},
	"sexy":         {"r&b", "soul", "smooth", "slow jam", "funk", "sensual", "groove", "lounge"},
	"moody":        {"dark pop", "alt[- ]?r&b", "atmospheric", "melancholic", "synth", "minimal"},
	"motivational": {"inspiring", "anthem", "pop rock", "gospel", "epic", "uplifting", "energetic"},
	"creative":     {"indie", "experimental", "alt pop", "eclectic", "fusion", "avant[- ]?garde"},
	"high":         {"psychedelic", "stoner rock", "dub", "reggae", "lo[- ]?fi", "trance", "chill"},
	"free":         {"reggae", "ska", "indie folk", "jam", "alternative", "acoustic", "wanderlust"},
}

var compiledMoods = compileMoods(moodPatterns)

func compileMoods(src map[string][]string) map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(src))
	for mood, patterns := range src {
		res := make([]*regexp.Regexp, len(patterns))
		for i, p := range patterns {
			res[i] = regexp.MustCompile(p)
		}
		out[mood] = res
	}
	return out
}

// Moods returns the supported mood labels in alphabetical order.
func Moods() []string {
	moods := make([]string, 0, len(moodPatterns))
	for m := range moodPatterns {
		moods = append(moods, m)
	}
	slices.Sort(moods)
	return moods
}

// NormalizeMood trims and lowercases a mood label. Blank labels become [DefaultMood].
func NormalizeMood(mood string) string {
	key := strings.ToLower(strings.TrimSpace(mood))
	if key == "" {
		return DefaultMood
	}
	return key
}

// Patterns resolves mood to its bucket label and genre patterns.
//
// Unknown moods keep their own label but match with the [DefaultMood] patterns.
func Patterns(mood string) (string, []*regexp.Regexp) {
	bucket := NormalizeMood(mood)
	if res, ok := compiledMoods[bucket]; ok {
		return bucket, res
	}
	return bucket, compiledMoods[DefaultMood]
}

// KnownMood reports whether mood has its own pattern set.
func KnownMood(mood string) bool {
	_, ok := moodPatterns[NormalizeMood(mood)]
	return ok
}

// score counts the genres that match at least one pattern.
func score(genres []string, patterns []*regexp.Regexp) int {
	n := 0
	for _, g := range genres {
		g = strings.ToLower(g)
		for _, p := range patterns {
			if p.MatchString(g) {
				n++
				break
			}
		}
	}
	return n
}
