// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/emberbot/emberbot/internal/api"
	"github.com/emberbot/emberbot/internal/cache"
	"github.com/emberbot/emberbot/internal/updater"
)

// releasesPayload lists a prerelease newer than the newest stable tag, so
// specs can tell stable picking apart from plain recency.
const releasesPayload = `[
	{"tag_name": "v1.5.0-rc.1", "name": "1.5.0 RC1", "prerelease": true, "published_at": "2026-04-01T00:00:00Z"},
	{"tag_name": "v1.4.0", "name": "1.4.0", "published_at": "2026-03-01T00:00:00Z"},
	{"tag_name": "v1.3.0", "name": "1.3.0", "published_at": "2026-02-01T00:00:00Z"}
]`

// releaseServer serves a fixed GitHub releases payload and counts fetches.
type releaseServer struct {
	srv  *httptest.Server
	hits atomic.Int64
}

func startReleaseServer(body string) *releaseServer {
	rs := &releaseServer{}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer GinkgoRecover()
		Expect(r.URL.Path).To(Equal("/repos/emberbot/emberbot/releases"))
		rs.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	return rs
}

var _ = Describe("Updater", func() {
	var (
		releases *releaseServer
		gh       *api.GitHub
	)

	BeforeEach(func() {
		releases = startReleaseServer(releasesPayload)
		gh = api.NewGitHub(api.WithBaseURL(releases.srv.URL))
	})

	AfterEach(func() {
		releases.srv.Close()
	})

	It("records the newest stable release", func() {
		u := updater.New("0.1.0", gh)
		Expect(u.CheckNow(context.Background())).To(Succeed())

		latest, ok := u.Latest()
		Expect(ok).To(BeTrue())
		Expect(latest.TagName).To(Equal("v1.4.0"))

		tag, ok := u.Available()
		Expect(ok).To(BeTrue())
		Expect(tag).To(Equal("v1.4.0"))
	})

	It("serves repeat checks from the cache", func() {
		c, err := cache.Open(filepath.Join(GinkgoT().TempDir(), "cache.db"))
		Expect(err).NotTo(HaveOccurred())
		defer c.Close()

		u := updater.New("0.1.0", gh, updater.WithCache(c))
		Expect(u.CheckNow(context.Background())).To(Succeed())
		Expect(u.CheckNow(context.Background())).To(Succeed())

		Expect(releases.hits.Load()).To(Equal(int64(1)))

		latest, ok := u.Latest()
		Expect(ok).To(BeTrue())
		Expect(latest.TagName).To(Equal("v1.4.0"))
	})

	It("keeps cached releases across restarts", func() {
		path := filepath.Join(GinkgoT().TempDir(), "cache.db")

		first, err := cache.Open(path)
		Expect(err).NotTo(HaveOccurred())
		u := updater.New("0.1.0", gh, updater.WithCache(first))
		Expect(u.CheckNow(context.Background())).To(Succeed())
		Expect(first.Close()).To(Succeed())

		// A fresh cache over the same file sees the stored payload, so
		// the restarted updater never touches the network.
		second, err := cache.Open(path)
		Expect(err).NotTo(HaveOccurred())
		defer second.Close()

		restarted := updater.New("0.1.0", gh, updater.WithCache(second))
		Expect(restarted.CheckNow(context.Background())).To(Succeed())
		Expect(releases.hits.Load()).To(Equal(int64(1)))

		tag, ok := restarted.Available()
		Expect(ok).To(BeTrue())
		Expect(tag).To(Equal("v1.4.0"))
	})

	It("does not offer prereleases as updates", func() {
		u := updater.New("1.4.0", gh)
		Expect(u.CheckNow(context.Background())).To(Succeed())

		// v1.5.0-rc.1 is newer than v1.4.0 but not stable.
		_, ok := u.Available()
		Expect(ok).To(BeFalse())
	})
})
