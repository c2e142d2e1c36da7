package jobs

import (
	"log"

	"github.com/nakkita92/tutorhub_backend/database"
	"github.com/nakkita92/tutorhub_backend/database/repository"
	"github.com/nakkita92/tutorhub_backend/notifications"
	"github.com/nakkita92/tutorhub_backend/services"
)

// ExpireWaitlistOffers drops waitlist entries whose seat offer lapsed and
// passes the freed offer down the queue. Scheduled every minute.
func ExpireWaitlistOffers() {
	ledger := services.NewPackageUseService(repository.NewPackageRepository(database.DB), services.SystemClock)
	waitlist := services.NewWaitlistService(
		repository.NewWaitlistRepository(database.DB),
		ledger,
		notifications.NewOfferDispatcher(),
		services.SystemClock,
	)

	expired, err := waitlist.ExpireLapsedOffers()
	if err != nil {
		log.Printf("🔥 ExpireWaitlistOffers failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("Expired %d lapsed waitlist offer(s)", expired)
	}
}
