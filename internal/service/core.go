package service

// Core — собранное ядро календаря. Транспортный слой (gRPC-шлюз)
// живёт в отдельном сервисе и встраивает этот набор целиком.
type Core struct {
	Schedule   *ScheduleService
	Bookings   *BookingService
	Duplicates *DuplicateService
}
