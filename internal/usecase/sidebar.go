package usecase

import (
	"strconv"

	"go.ngs.io/hydroviewer/internal/config"
	"go.ngs.io/hydroviewer/internal/domain"
)

// Choice is one option of a sidebar control.
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Control is a labelled group of choices.
type Control struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Choices []Choice `json:"choices"`
}

// Link is an external reference shown as a button or inline anchor.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Sidebar is the control panel of the dashboard.
type Sidebar struct {
	Variables     Control `json:"variables"`
	Profiles      Control `json:"profiles"`
	DataTypes     Control `json:"data_types"`
	Documentation *Link   `json:"documentation,omitempty"`
}

// BuildSidebar lists the catalog choices with the session defaults selected.
func BuildSidebar(cat *config.Catalog, documentationURL string) Sidebar {
	sb := Sidebar{
		Variables: Control{ID: "var_selector", Prompt: "Select variables below:"},
		Profiles:  Control{ID: "profile_selector", Prompt: "Depth (Only applicable to soil temperature & moisture)"},
		DataTypes: Control{ID: "data_selector", Prompt: "Select your data type"},
	}
	for _, v := range cat.Variables {
		sb.Variables.Choices = append(sb.Variables.Choices, Choice{
			Value:    v.Name,
			Label:    v.Label,
			Selected: v.Name == cat.DefaultVariable,
		})
	}
	for i, p := range cat.Profiles {
		sb.Profiles.Choices = append(sb.Profiles.Choices, Choice{
			Value:    strconv.Itoa(p.Index),
			Label:    p.Label,
			Selected: i == 0,
		})
	}
	for _, dt := range cat.DataTypes {
		sb.DataTypes.Choices = append(sb.DataTypes.Choices, Choice{
			Value:    dt,
			Label:    dt,
			Selected: dt == domain.DataTypeProbabilistic,
		})
	}
	if documentationURL != "" {
		sb.Documentation = &Link{Text: "Take me to documentation", URL: documentationURL}
	}
	return sb
}

// Welcome is the dialog shown when the page opens.
type Welcome struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Heading  string `json:"heading"`
	Body     string `json:"body"`
	Citation Link   `json:"citation"`
	Credits  string `json:"credits"`
	Contact  Link   `json:"contact"`
}

// WelcomeMessage returns the copy of the welcome dialog.
func WelcomeMessage() Welcome {
	return Welcome{
		Title:    "The Amazon Hydrometeorology Viewer",
		Subtitle: "A web-based NetCDF data visualizer",
		Heading:  "Welcome message,",
		Body: "This interactive map provides access to estimates of monthly meteorological " +
			"and hydrological conditions in the Amazon basin, derived from output of " +
			"a Land Data Assimilation System. The original implementation is described in",
		Citation: Link{Text: "Recalde et al. (2022).", URL: "https://doi.org/10.1175/JHM-D-21-0081.1"},
		Credits: "The current, updated system is maintained by Dr. Prakrut Kansara, " +
			"with visualizations designed by Kris Su. Please direct questions to",
		Contact: Link{Text: "Ben Zaitchik.", URL: "mailto:zaitchik@jhu.edu"},
	}
}
