package config

// Selectors are the CSS selectors one career site needs. Employers override
// only the fields that differ from their ATS defaults.
type Selectors struct {
	//Listing page
	ListingReady string `yaml:"listing_ready"`
	JobCard      string `yaml:"job_card"`
	JobLink      string `yaml:"job_link"`
	CardTitle    string `yaml:"card_title"`
	CardLocation string `yaml:"card_location"`

	//Pagination
	LoadMore     string   `yaml:"load_more"`
	LoadMoreText []string `yaml:"load_more_text"`
	NextButton   string   `yaml:"next_button"`

	//fmt pattern taking the page number, e.g. button[aria-label="page %d"]
	PageButton string `yaml:"page_button"`
	ActivePage string `yaml:"active_page"`

	//Detail page
	DetailReady    string `yaml:"detail_ready"`
	Title          string `yaml:"title"`
	Location       string `yaml:"location"`
	LocationIcon   string `yaml:"location_icon"`
	Header         string `yaml:"header"`
	Description    string `yaml:"description"`
	Compensation   string `yaml:"compensation"`
	EmploymentType string `yaml:"employment_type"`
	Shift          string `yaml:"shift"`
	Department     string `yaml:"department"`
	RequisitionID  string `yaml:"requisition_id"`
	PostedDate     string `yaml:"posted_date"`
}

// Merge returns s with every non-empty field of override applied on top.
func (s Selectors) Merge(override Selectors) Selectors {
	out := s
	pick(&out.ListingReady, override.ListingReady)
	pick(&out.JobCard, override.JobCard)
	pick(&out.JobLink, override.JobLink)
	pick(&out.CardTitle, override.CardTitle)
	pick(&out.CardLocation, override.CardLocation)
	pick(&out.LoadMore, override.LoadMore)
	pick(&out.NextButton, override.NextButton)
	pick(&out.PageButton, override.PageButton)
	pick(&out.ActivePage, override.ActivePage)
	pick(&out.DetailReady, override.DetailReady)
	pick(&out.Title, override.Title)
	pick(&out.Location, override.Location)
	pick(&out.LocationIcon, override.LocationIcon)
	pick(&out.Header, override.Header)
	pick(&out.Description, override.Description)
	pick(&out.Compensation, override.Compensation)
	pick(&out.EmploymentType, override.EmploymentType)
	pick(&out.Shift, override.Shift)
	pick(&out.Department, override.Department)
	pick(&out.RequisitionID, override.RequisitionID)
	pick(&out.PostedDate, override.PostedDate)

	if len(override.LoadMoreText) > 0 {
		out.LoadMoreText = append([]string(nil), override.LoadMoreText...)
	} else {
		out.LoadMoreText = append([]string(nil), s.LoadMoreText...)
	}
	return out
}

func pick(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
