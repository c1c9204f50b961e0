package models

// Screen identifies one view of the application
type Screen int

const (
	ScreenSelection Screen = iota + 1
	ScreenList
	ScreenDetail
	ScreenSettings
	ScreenFavorites
	ScreenContact
	ScreenPrivacy
	ScreenAuth
	ScreenResetPassword
	ScreenTerms
	ScreenAdminExport
	ScreenTools
	ScreenGamificationGuide
	ScreenGamificationTools
)

var screenNames = map[Screen]string{
	ScreenSelection:         "selection",
	ScreenList:              "list",
	ScreenDetail:            "detail",
	ScreenSettings:          "settings",
	ScreenFavorites:         "favorites",
	ScreenContact:           "contact",
	ScreenPrivacy:           "privacy",
	ScreenAuth:              "auth",
	ScreenResetPassword:     "reset-password",
	ScreenTerms:             "terms",
	ScreenAdminExport:       "admin-export",
	ScreenTools:             "tools",
	ScreenGamificationGuide: "gamification-guide",
	ScreenGamificationTools: "gamification-tools",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return "unknown"
}
