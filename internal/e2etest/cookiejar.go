package e2etest

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// unsafeCookieJar drops the Secure attribute so that session cookies survive the plain HTTP test server.
type unsafeCookieJar struct {
	*cookiejar.Jar
}

func newUnsafeCookieJar() (*unsafeCookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	return &unsafeCookieJar{Jar: jar}, nil
}

func (j *unsafeCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		cookie.Secure = false
	}
	j.Jar.SetCookies(u, cookies)
}
