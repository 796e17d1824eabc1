package connect

const (
	// DashboardServiceName is the fully-qualified name of the DashboardService.
	DashboardServiceName = "gigbox.v1.DashboardService"
	// PlayerServiceName is the fully-qualified name of the PlayerService.
	PlayerServiceName = "gigbox.v1.PlayerService"
)

// Procedure paths.
const (
	DashboardServiceGetStateProcedure       = "/gigbox.v1.DashboardService/GetState"
	DashboardServiceDiscoverProcedure       = "/gigbox.v1.DashboardService/Discover"
	DashboardServiceToggleGenreProcedure    = "/gigbox.v1.DashboardService/ToggleGenre"
	DashboardServiceGetArtistProcedure      = "/gigbox.v1.DashboardService/GetArtist"
	DashboardServiceCreatePlaylistProcedure = "/gigbox.v1.DashboardService/CreatePlaylist"
	DashboardServiceSubscribeStateProcedure = "/gigbox.v1.DashboardService/SubscribeState"

	PlayerServicePreviousProcedure = "/gigbox.v1.PlayerService/Previous"
	PlayerServiceNextProcedure     = "/gigbox.v1.PlayerService/Next"
	PlayerServiceToggleProcedure   = "/gigbox.v1.PlayerService/Toggle"
	PlayerServiceRepeatProcedure   = "/gigbox.v1.PlayerService/Repeat"
	PlayerServiceNotifyProcedure   = "/gigbox.v1.PlayerService/Notify"
)

// AdminProcedures lists the procedures that require the admin token.
var AdminProcedures = map[string]bool{
	DashboardServiceCreatePlaylistProcedure: true,
	PlayerServicePreviousProcedure:          true,
	PlayerServiceNextProcedure:              true,
	PlayerServiceToggleProcedure:            true,
	PlayerServiceRepeatProcedure:            true,
	PlayerServiceNotifyProcedure:            true,
}
