package generators

import "github.com/rsumit123/willow-leather-api/internal/models"

const teamBudget = 900000000

// franchise is one fixed entry of the eight-team league.
type franchise struct {
	Name           string
	ShortName      string
	City           string
	HomeGround     string
	PrimaryColor   string
	SecondaryColor string
}

// Franchises is the fixed league lineup. Order matters: the user picks a
// team by index at career creation.
var Franchises = []franchise{
	{"Mumbai Titans", "MT", "Mumbai", "Wankhede Stadium", "#004BA0", "#FFD700"},
	{"Chennai Kings", "CK", "Chennai", "M.A. Chidambaram Stadium", "#FFFF00", "#0000FF"},
	{"Bangalore Warriors", "BW", "Bangalore", "M. Chinnaswamy Stadium", "#EC1C24", "#000000"},
	{"Kolkata Knights", "KK", "Kolkata", "Eden Gardens", "#3A225D", "#FFD700"},
	{"Delhi Capitals", "DC", "Delhi", "Arun Jaitley Stadium", "#0078BC", "#EF1B23"},
	{"Hyderabad Sunrisers", "HS", "Hyderabad", "Rajiv Gandhi Intl. Stadium", "#FF822A", "#000000"},
	{"Rajasthan Royals", "RR", "Jaipur", "Sawai Mansingh Stadium", "#EA1A85", "#254AA5"},
	{"Punjab Lions", "PL", "Mohali", "PCA Stadium", "#ED1B24", "#A7A9AC"},
}

// CreateTeams materialises the eight franchises for a career. The team at
// userTeamIndex becomes the user's; the flag is set here exactly once.
func CreateTeams(careerID uint, userTeamIndex int) []models.Team {
	teams := make([]models.Team, 0, len(Franchises))
	for i, f := range Franchises {
		cid := careerID
		teams = append(teams, models.Team{
			CareerID:        &cid,
			Name:            f.Name,
			ShortName:       f.ShortName,
			City:            f.City,
			HomeGround:      f.HomeGround,
			PrimaryColor:    f.PrimaryColor,
			SecondaryColor:  f.SecondaryColor,
			Budget:          teamBudget,
			RemainingBudget: teamBudget,
			IsUserTeam:      i == userTeamIndex,
		})
	}
	return teams
}

// TeamChoice is the pre-creation listing shown to the user.
type TeamChoice struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	City      string `json:"city"`
}

// TeamChoices lists the franchises for team selection.
func TeamChoices() []TeamChoice {
	choices := make([]TeamChoice, 0, len(Franchises))
	for i, f := range Franchises {
		choices = append(choices, TeamChoice{Index: i, Name: f.Name, ShortName: f.ShortName, City: f.City})
	}
	return choices
}
