package models

// HwWalletObject is a pass model or a pass instance as exchanged with the wallet gateway.
// A model is identified by its passStyleIdentifier and an instance by its serialNumber.
type HwWalletObject struct {
	PassVersion         string  `json:"passVersion,omitempty"`
	PassTypeIdentifier  string  `json:"passTypeIdentifier,omitempty"`
	PassStyleIdentifier string  `json:"passStyleIdentifier,omitempty"`
	OrganizationName    string  `json:"organizationName,omitempty"`
	OrganizationPassID  string  `json:"organizationPassId,omitempty"`
	SerialNumber        string  `json:"serialNumber,omitempty"`
	LinkDevicePass      *Device `json:"linkDevicePass,omitempty"`
	Fields              *Fields `json:"fields,omitempty"`
}

type Device struct {
	DeviceID string `json:"deviceId,omitempty"`
	SeID     string `json:"seId,omitempty"`
}

type Fields struct {
	CountryCode           string        `json:"countryCode,omitempty"`
	CurrencyCode          string        `json:"currencyCode,omitempty"`
	IsUserDiy             string        `json:"isUserDiy,omitempty"`
	SrcPassTypeIdentifier string        `json:"srcPassTypeIdentifier,omitempty"`
	SrcPassIdentifier     string        `json:"srcPassIdentifier,omitempty"`
	Status                *Status       `json:"status,omitempty"`
	RelatedPassIDs        []RelatedPass `json:"relatedPassIds,omitempty"`
	LocationList          []Location    `json:"locationList,omitempty"`
	BarCode               *BarCode      `json:"barCode,omitempty"`
	CommonFields          []Field       `json:"commonFields,omitempty"`
	AppendFields          []Field       `json:"appendFields,omitempty"`
	MessageList           []Field       `json:"messageList,omitempty"`
	TimeList              []Field       `json:"timeList,omitempty"`
	ImageList             []Field       `json:"imageList,omitempty"`
	TextList              []Field       `json:"textList,omitempty"`
	Localized             []Localized   `json:"localized,omitempty"`
	TicketInfoList        []Field       `json:"ticketInfoList,omitempty"`
	URLList               []Field       `json:"urlList,omitempty"`
}

type Status struct {
	State      string `json:"state,omitempty"`
	EffectTime string `json:"effectTime,omitempty"`
	ExpireTime string `json:"expireTime,omitempty"`
}

type RelatedPass struct {
	TypeID string `json:"typeId,omitempty"`
	ID     string `json:"id,omitempty"`
}

type Location struct {
	Longitude string `json:"longitude,omitempty"`
	Latitude  string `json:"latitude,omitempty"`
}

type BarCode struct {
	Text     string `json:"text,omitempty"`
	Type     string `json:"type,omitempty"`
	Value    string `json:"value,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

// Field is the generic key-value entry used by most of the pass lists
type Field struct {
	Key            string `json:"key"`
	Value          string `json:"value"`
	Label          string `json:"label,omitempty"`
	LocalizedLabel string `json:"localizedLabel,omitempty"`
	LocalizedValue string `json:"localizedValue,omitempty"`
}

type Localized struct {
	Key      string `json:"key"`
	Language string `json:"language"`
	Value    string `json:"value"`
}

// MessageList is the request body of the add-message api
type MessageList struct {
	MessageList []Field `json:"messageList"`
}

// LinkedOffers is the request body used to attach or detach offers of a loyalty instance
type LinkedOffers struct {
	Add    []RelatedPass `json:"addLinkedOffers,omitempty"`
	Remove []string      `json:"removeLinkedOfferIds,omitempty"`
	Update []RelatedPass `json:"updateLinkedOffers,omitempty"`
}

type PageInfo struct {
	ServiceType string `json:"serviceType,omitempty"`
	PageSize    int64  `json:"pageSize"`
	NextSession string `json:"nextSession,omitempty"`
}

type BatchQueryResp struct {
	PageInfo PageInfo         `json:"pageInfo"`
	Data     []HwWalletObject `json:"data"`
}
