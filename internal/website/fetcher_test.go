package website

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFor(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"How do I apply through KEAM?", BaseURL + "admissions/"},
		{"what courses are offered", BaseURL + "academics/"},
		{"Computer Science labs", BaseURL + "departments/cse/"},
		{"ECE HOD", BaseURL + "departments/ece/"},
		{"electrical dept", BaseURL + "departments/eee/"},
		{"mechanical workshop", BaseURL + "departments/me/"},
		{"civil engineering", BaseURL + "departments/ce/"},
		{"which company recruits", BaseURL + "placements/"},
		{"faculty list", BaseURL + "faculty/"},
		{"hostel undo", BaseURL + "facilities/"},
		{"library timing", BaseURL + "facilities/"},
		{"phone number", BaseURL + "contact/"},
		{"history of the college", BaseURL + "about/"},
		{"hello", BaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, URLFor(tt.message))
		})
	}
}

func TestURLForOrder(t *testing.T) {
	// admission is checked before courses.
	assert.Equal(t, BaseURL+"admissions/", URLFor("admission to the btech course"))
}

func TestFetchExtractsVisibleText(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><head><style>body{}</style></head><body>
			<header>Menu</header><nav>Home | About</nav>
			<h1>Placements</h1>
			<p>Top   recruiters
			include TCS.</p>
			<script>track()</script>
			<footer>Copyright</footer>
		</body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, "", 0)
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Placements Top recruiters include TCS.", text)
	assert.Equal(t, DefaultUserAgent, userAgent)
}

func TestFetchTruncatesRunes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<body>" + strings.Repeat("ലൈ", 20) + "</body>"))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, "", 5)
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 5, len([]rune(text)))
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(time.Second, "", 0).Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 404")
}
