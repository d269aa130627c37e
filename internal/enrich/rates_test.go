package enrich

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/shopspring/decimal"
)

var _ = Describe("HTTPRateSource", func() {
	var (
		server *ghttp.Server
		source *HTTPRateSource
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		source = NewHTTPRateSource(server.URL(), "GBP")
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Rate", func() {
		When("the service returns a rate", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/2023-06-01", "from=USD&to=GBP"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
						"rates": map[string]float64{"GBP": 0.79},
					}),
				))
			})

			It("should return the rate for the requested date", func() {
				rate, err := source.Rate(context.Background(), "USD", "2023-06-01")
				Expect(err).NotTo(HaveOccurred())
				Expect(rate.Equal(decimal.NewFromFloat(0.79))).To(BeTrue())
			})

			It("should serve repeat lookups from the cache", func() {
				_, err := source.Rate(context.Background(), "USD", "2023-06-01")
				Expect(err).NotTo(HaveOccurred())

				rate, err := source.Rate(context.Background(), "USD", "2023-06-01")
				Expect(err).NotTo(HaveOccurred())
				Expect(rate.Equal(decimal.NewFromFloat(0.79))).To(BeTrue())
				Expect(server.ReceivedRequests()).To(HaveLen(1))
			})
		})

		When("the service returns an error status", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "no rates"))
			})

			It("should return an error", func() {
				_, err := source.Rate(context.Background(), "USD", "1800-01-01")
				Expect(err).To(HaveOccurred())
			})
		})

		When("the response lacks the base currency", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"rates": map[string]float64{"EUR": 1.17},
				}))
			})

			It("should return an error", func() {
				_, err := source.Rate(context.Background(), "USD", "2023-06-01")
				Expect(err).To(HaveOccurred())
			})
		})

		When("the service is unreachable", func() {
			BeforeEach(func() {
				server.Close()
			})

			It("should return an error", func() {
				_, err := source.Rate(context.Background(), "USD", "2023-06-01")
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
