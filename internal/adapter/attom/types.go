package attom

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ATTOM API response types. Only the fields the provider maps are declared.

type status struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type envelope struct {
	Status status `json:"status"`
}

type emptiable interface {
	empty() bool
}

type response[T any] struct {
	Status   status `json:"status"`
	Property []T    `json:"property"`
}

// empty reports a response that is not a match: a non-zero status code, the
// no-result message, or no properties.
func (r *response[T]) empty() bool {
	return r.Status.Code != 0 || r.Status.Msg == noResultMsg || len(r.Property) == 0
}

type address struct {
	OneLine string `json:"oneLine"`
}

type avmProperty struct {
	Address address `json:"address"`
	AVM     struct {
		Amount struct {
			Value number `json:"value"`
			High  number `json:"high"`
			Low   number `json:"low"`
			Score number `json:"scr"`
		} `json:"amount"`
	} `json:"avm"`
}

type detailProperty struct {
	Summary struct {
		YearBuilt number `json:"yearBuilt"`
		PropType  string `json:"proptype"`
	} `json:"summary"`
	Building struct {
		Rooms struct {
			Beds       number `json:"beds"`
			BathsTotal number `json:"bathstotal"`
		} `json:"rooms"`
	} `json:"building"`
	Owner struct {
		Owner1 struct {
			FullName string `json:"fullName"`
		} `json:"owner1"`
		MailingAddress address `json:"mailingAddress"`
	} `json:"owner"`
}

type assessmentProperty struct {
	Assessment struct {
		Assessed struct {
			TotalValue number `json:"assdttlvalue"`
		} `json:"assessed"`
		Market struct {
			TotalValue number `json:"mktttlvalue"`
		} `json:"market"`
		Tax struct {
			Amount number `json:"taxamt"`
			Year   number `json:"taxyear"`
		} `json:"tax"`
	} `json:"assessment"`
}

type salesProperty struct {
	SaleHistory []struct {
		SaleTransDate string `json:"saleTransDate"`
		Amount        struct {
			SaleAmount number `json:"saleamt"`
		} `json:"amount"`
	} `json:"saleHistory"`
}

type profileProperty struct {
	PreForeclosureActive flag `json:"preforeclosureActive"`
	TaxDelinquent        flag `json:"taxDelinquent"`
	Assessment           struct {
		Tax struct {
			DelinquentYear number `json:"taxDelinquentYear"`
		} `json:"tax"`
	} `json:"assessment"`
}

// number decodes JSON numbers and numeric strings. Anything else, including
// null and malformed strings, decodes to zero without error.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil //nolint:nilerr // malformed fields are treated as absent
		}
		s = strings.ReplaceAll(strings.TrimSpace(str), ",", "")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = number(f)
	}
	return nil
}

// flag decodes booleans, "Y"/"N" style strings, and 0/1.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	switch strings.ToUpper(s) {
	case "TRUE", "Y", "YES", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}
