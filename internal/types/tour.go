package types

// Content type ids used by the KorService2 API.
const (
	ContentTypeTouristSpot      = "12"
	ContentTypeCulturalFacility = "14"
	ContentTypeFestival         = "15"
	ContentTypeTourCourse       = "25"
	ContentTypeLeisureSports    = "28"
	ContentTypeAccommodation    = "32"
	ContentTypeShopping         = "38"
	ContentTypeRestaurant       = "39"
)

// ContentTypes lists every content type in the order the API documents them.
var ContentTypes = []string{
	ContentTypeTouristSpot,
	ContentTypeCulturalFacility,
	ContentTypeFestival,
	ContentTypeTourCourse,
	ContentTypeLeisureSports,
	ContentTypeAccommodation,
	ContentTypeShopping,
	ContentTypeRestaurant,
}

var contentTypeNames = map[string]string{
	ContentTypeTouristSpot:      "관광지",
	ContentTypeCulturalFacility: "문화시설",
	ContentTypeFestival:         "축제/행사",
	ContentTypeTourCourse:       "여행코스",
	ContentTypeLeisureSports:    "레포츠",
	ContentTypeAccommodation:    "숙박",
	ContentTypeShopping:         "쇼핑",
	ContentTypeRestaurant:       "음식점",
}

// ContentTypeName returns the display name of a content type, or "알 수 없음" when unknown.
func ContentTypeName(contentTypeID string) string {
	if name, ok := contentTypeNames[contentTypeID]; ok {
		return name
	}
	return "알 수 없음"
}

// IsContentType reports whether id is one of the known content types.
func IsContentType(id string) bool {
	_, ok := contentTypeNames[id]
	return ok
}

// AreaCode is a first-level administrative region (areaCode2).
type AreaCode struct {
	Code string `json:"code"`
	Name string `json:"name"`
	RNum int    `json:"rnum,omitempty"`
}

// TourItem is a list entry returned by areaBasedList2 and searchKeyword2.
// MapX/MapY are kept as the raw provider strings; see the coordinate package.
type TourItem struct {
	ContentID     string `json:"contentid"`
	ContentTypeID string `json:"contenttypeid"`
	Title         string `json:"title"`
	Addr1         string `json:"addr1"`
	Addr2         string `json:"addr2,omitempty"`
	AreaCode      string `json:"areacode,omitempty"`
	MapX          string `json:"mapx"`
	MapY          string `json:"mapy"`
	FirstImage    string `json:"firstimage,omitempty"`
	FirstImage2   string `json:"firstimage2,omitempty"`
	Tel           string `json:"tel,omitempty"`
	Cat1          string `json:"cat1,omitempty"`
	Cat2          string `json:"cat2,omitempty"`
	Cat3          string `json:"cat3,omitempty"`
	ModifiedTime  string `json:"modifiedtime,omitempty"`
}

// TourDetail is the detailCommon2 record for a single attraction.
type TourDetail struct {
	ContentID     string `json:"contentid"`
	ContentTypeID string `json:"contenttypeid"`
	Title         string `json:"title"`
	Addr1         string `json:"addr1"`
	Addr2         string `json:"addr2,omitempty"`
	Zipcode       string `json:"zipcode,omitempty"`
	Tel           string `json:"tel,omitempty"`
	Homepage      string `json:"homepage,omitempty"`
	Overview      string `json:"overview,omitempty"`
	FirstImage    string `json:"firstimage,omitempty"`
	FirstImage2   string `json:"firstimage2,omitempty"`
	MapX          string `json:"mapx"`
	MapY          string `json:"mapy"`
	Cat1          string `json:"cat1,omitempty"`
	Cat2          string `json:"cat2,omitempty"`
	Cat3          string `json:"cat3,omitempty"`
	ModifiedTime  string `json:"modifiedtime,omitempty"`
}

// AsTourItem projects a detail record onto the list shape.
func (d TourDetail) AsTourItem() TourItem {
	return TourItem{
		ContentID:     d.ContentID,
		ContentTypeID: d.ContentTypeID,
		Title:         d.Title,
		Addr1:         d.Addr1,
		Addr2:         d.Addr2,
		MapX:          d.MapX,
		MapY:          d.MapY,
		FirstImage:    d.FirstImage,
		FirstImage2:   d.FirstImage2,
		Tel:           d.Tel,
		Cat1:          d.Cat1,
		Cat2:          d.Cat2,
		Cat3:          d.Cat3,
		ModifiedTime:  d.ModifiedTime,
	}
}

// TourIntro is the detailIntro2 record. Its keys depend on the content type,
// so it is kept as a string map; IntroFieldCatalog documents the known keys.
type TourIntro map[string]string

// ContentID returns the contentid field.
func (t TourIntro) ContentID() string { return t["contentid"] }

// ContentTypeID returns the contenttypeid field.
func (t TourIntro) ContentTypeID() string { return t["contenttypeid"] }

// IntroField is a labelled, non-empty intro value ready for display.
type IntroField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Fields returns the catalogued non-empty fields for the intro's content type,
// in catalog order.
func (t TourIntro) Fields() []IntroField {
	catalog := IntroFieldCatalog[t.ContentTypeID()]
	fields := make([]IntroField, 0, len(catalog))
	for _, f := range catalog {
		if v := t[f.Key]; v != "" {
			fields = append(fields, IntroField{Key: f.Key, Label: f.Label, Value: v})
		}
	}
	return fields
}

// IntroFieldDef names one known detailIntro2 key.
type IntroFieldDef struct {
	Key   string
	Label string
}

// IntroFieldCatalog lists the detailIntro2 keys known per content type.
var IntroFieldCatalog = map[string][]IntroFieldDef{
	ContentTypeTouristSpot: {
		{"infocenter", "문의처"}, {"usetime", "이용시간"}, {"restdate", "휴무일"},
		{"parking", "주차"}, {"chkpet", "반려동물"}, {"chkbabycarriage", "유모차"},
		{"expguide", "체험안내"}, {"useseason", "이용시기"},
	},
	ContentTypeCulturalFacility: {
		{"infocenterculture", "문의처"}, {"usetimeculture", "이용시간"}, {"restdateculture", "휴무일"},
		{"usefee", "이용요금"}, {"parkingculture", "주차"}, {"parkingfee", "주차요금"},
		{"chkpetculture", "반려동물"}, {"spendtime", "관람소요시간"},
	},
	ContentTypeFestival: {
		{"eventstartdate", "시작일"}, {"eventenddate", "종료일"}, {"playtime", "공연시간"},
		{"eventplace", "행사장소"}, {"usetimefestival", "이용요금"}, {"sponsor1", "주최"},
		{"sponsor1tel", "주최 연락처"}, {"agelimit", "관람가능연령"},
	},
	ContentTypeTourCourse: {
		{"infocentertourcourse", "문의처"}, {"distance", "코스 총거리"}, {"taketime", "코스 소요시간"},
		{"schedule", "코스 일정"}, {"theme", "코스 테마"},
	},
	ContentTypeLeisureSports: {
		{"infocenterleports", "문의처"}, {"usetimeleports", "이용시간"}, {"restdateleports", "휴무일"},
		{"usefeeleports", "이용요금"}, {"parkingleports", "주차"}, {"parkingfeeleports", "주차요금"},
		{"chkpetleports", "반려동물"}, {"openperiod", "개장기간"},
	},
	ContentTypeAccommodation: {
		{"infocenterlodging", "문의처"}, {"checkintime", "입실시간"}, {"checkouttime", "퇴실시간"},
		{"roomcount", "객실수"}, {"parkinglodging", "주차"}, {"reservationlodging", "예약안내"},
		{"reservationurl", "예약 홈페이지"}, {"subfacility", "부대시설"},
	},
	ContentTypeShopping: {
		{"infocentershopping", "문의처"}, {"opentime", "영업시간"}, {"restdateshopping", "휴무일"},
		{"parkingshopping", "주차"}, {"saleitem", "판매품목"}, {"chkpetshopping", "반려동물"},
	},
	ContentTypeRestaurant: {
		{"infocenterfood", "문의처"}, {"opentimefood", "영업시간"}, {"restdatefood", "휴무일"},
		{"firstmenu", "대표메뉴"}, {"treatmenu", "취급메뉴"}, {"parkingfood", "주차"},
		{"packing", "포장"}, {"reservationfood", "예약안내"},
	},
}

// TourImage is one detailImage2 entry.
type TourImage struct {
	ContentID     string `json:"contentid"`
	OriginImgURL  string `json:"originimgurl"`
	SerialNum     string `json:"serialnum"`
	SmallImageURL string `json:"smallimageurl,omitempty"`
	ImgName       string `json:"imgname,omitempty"`
}

// PetTourInfo is the detailPetTour2 record. Most attractions have none.
type PetTourInfo struct {
	ContentID     string `json:"contentid"`
	ContentTypeID string `json:"contenttypeid,omitempty"`
	ChkPetLeash   string `json:"chkpetleash,omitempty"`
	ChkPetSize    string `json:"chkpetsize,omitempty"`
	ChkPetPlace   string `json:"chkpetplace,omitempty"`
	ChkPetFee     string `json:"chkpetfee,omitempty"`
	PetInfo       string `json:"petinfo,omitempty"`
	Parking       string `json:"parking,omitempty"`
}
