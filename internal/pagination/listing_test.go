package pagination

import (
	"net/url"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/models"
)

func TestNormalizeURL(t *testing.T) {
	base, _ := url.Parse("https://jobs.example.com/search?page=1")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"/job/2", "https://jobs.example.com/job/2", true},
		{"https://a.com/jobs/1?utm_source=x&id=5#top", "https://a.com/jobs/1?id=5", true},
		{"job/3?gclid=abc", "https://jobs.example.com/job/3", true},
		{"  ", "", false},
		{"#apply", "", false},
		{"javascript:void(0)", "", false},
		{"mailto:hr@example.com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, ok := NormalizeURL(base, tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceJobID(t *testing.T) {
	tests := map[string]string{
		"https://hhc.wd5.myworkdayjobs.com/en-US/careers/job/Hartford-CT/Registered-Nurse_R12345":   "R12345",
		"https://hhc.wd5.myworkdayjobs.com/en-US/careers/job/Hartford-CT/Registered-Nurse_R12345-1": "R12345-1",
		"https://boards.greenhouse.io/acme/jobs?gh_jid=4455":                                         "4455",
		"https://careers.example.org/jobs/123456":                                                    "123456",
		"https://careers.example.org/job?jobId=ABC-9":                                                "ABC-9",
		"https://careers.example.org/careers/nurse":                                                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SourceJobID(in), in)
	}
}

func TestParseListing(t *testing.T) {
	html := `<ul>
	  <li class="job"><a class="title" href="/job/RN-ICU_R100">  Registered Nurse
	  ICU </a><span class="loc">Hartford, CT</span></li>
	  <li class="job"><a class="title" href="javascript:void(0)">Broken</a></li>
	  <li class="job"><span>no link</span></li>
	  <li class="job"><a class="title" href="/job/RN-ED_R101?utm_campaign=x">RN - ED</a></li>
	</ul>`
	sel := config.Selectors{JobCard: "li.job", JobLink: "a.title", CardLocation: ".loc"}

	got, err := ParseListing(html, "https://jobs.example.com/search", sel)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Registered Nurse ICU", got[0].Title)
	assert.Equal(t, "Hartford, CT", got[0].LocationText)
	assert.Equal(t, "https://jobs.example.com/job/RN-ICU_R100", got[0].DetailURL)
	assert.Equal(t, "R100", got[0].SourceJobID)

	assert.Equal(t, "https://jobs.example.com/job/RN-ED_R101", got[1].DetailURL)
	assert.Empty(t, got[1].LocationText)
}

func TestParseListingLinksOnly(t *testing.T) {
	html := `<a class="title" href="/job/1001">RN</a><a class="title" href="/job/1002">RN Nights</a>`
	got, err := ParseListing(html, "https://jobs.example.com/", config.Selectors{JobLink: "a.title"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1002", got[1].SourceJobID)
}

func TestUnseen(t *testing.T) {
	seen := mapset.NewThreadUnsafeSet[string]("a")
	cands := []models.JobListingCandidate{{DetailURL: "a"}, {DetailURL: "b"}, {DetailURL: "b"}, {DetailURL: "c"}}

	got := unseen(cands, seen)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].DetailURL)
	assert.Equal(t, "c", got[1].DetailURL)
	assert.Equal(t, 3, seen.Cardinality())
	assert.Empty(t, unseen(cands, seen))
}
