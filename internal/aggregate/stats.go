package aggregate

import (
	"math"

	"github.com/yungbote/neurobridge-bff/internal/domain/commerce"
	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
)

func summarize(orders []commerce.Order) dashboard.Summary {
	var spent int64
	for _, o := range orders {
		spent += o.Total
	}
	return dashboard.Summary{TotalOrders: len(orders), TotalSpent: spent}
}

// statistics builds the web statistics block. The average is rounded half up
// and is 0 for a user with no orders.
func statistics(orders []commerce.Order) dashboard.Statistics {
	sum := summarize(orders)
	breakdown := make(map[string]int)
	for _, o := range orders {
		breakdown[o.Status]++
	}
	var avg int64
	if sum.TotalOrders > 0 {
		avg = int64(math.Floor(float64(sum.TotalSpent)/float64(sum.TotalOrders) + 0.5))
	}
	return dashboard.Statistics{
		TotalOrders:       sum.TotalOrders,
		TotalSpent:        sum.TotalSpent,
		AverageOrderValue: avg,
		StatusBreakdown:   breakdown,
	}
}
