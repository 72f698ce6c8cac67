package models

// AccessTokenResp is the response of the oauth2 client-credentials grant
type AccessTokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// CallbackNotification is the typed view of a verified callback body. Fields
// unknown to this struct are kept in Extra.
type CallbackNotification struct {
	EventID            string                 `json:"eventId" mapstructure:"eventId"`
	EventTime          string                 `json:"eventTime" mapstructure:"eventTime"`
	EventType          string                 `json:"eventType" mapstructure:"eventType"`
	SceneType          string                 `json:"sceneType" mapstructure:"sceneType"`
	PassNumber         string                 `json:"passNumber" mapstructure:"passNumber"`
	PassTypeIdentifier string                 `json:"passTypeIdentifier" mapstructure:"passTypeIdentifier"`
	NoticeToken        string                 `json:"noticeToken" mapstructure:"noticeToken"`
	PushToken          string                 `json:"pushToken" mapstructure:"pushToken"`
	Extra              map[string]interface{} `json:"-" mapstructure:",remain"`
}

// ThinPayload binds already created instances to a user
type ThinPayload struct {
	InstanceIDs []string `json:"instanceIds"`
	Iss         string   `json:"iss"`
}
