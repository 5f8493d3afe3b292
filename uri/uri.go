package uri

import (
	"bytes"
)

//URI http request URI helper, parsed once from an absolute or
//origin-form request target
type URI struct {
	isTLS bool

	full   []byte
	scheme []byte
	host   []byte

	path      []byte
	queries   []byte
	fragments []byte

	hostWithPort string

	pathWithQueryFragment       []byte
	pathWithQueryFragmentParsed bool
}

//Scheme uri scheme, http or https usually
func (uri *URI) Scheme() []byte {
	return uri.scheme
}

//Host host specified in uri, may carry an explicit port
func (uri *URI) Host() []byte {
	return uri.host
}

//HostName host without the explicit port
func (uri *URI) HostName() []byte {
	host := uri.host
	if i := portSepIndex(host); i >= 0 {
		return host[:i]
	}
	return host
}

//Port explicit port specified in uri, nil when absent
func (uri *URI) Port() []byte {
	host := uri.host
	if i := portSepIndex(host); i >= 0 {
		return host[i+1:]
	}
	return nil
}

//portSepIndex index of the host/port separating colon,
//IPv6 literals in brackets are honored
func portSepIndex(host []byte) int {
	colon := bytes.LastIndexByte(host, ':')
	if colon > bytes.LastIndexByte(host, ']') {
		return colon
	}
	return -1
}

//PathWithQueryFragment relative request target
func (uri *URI) PathWithQueryFragment() []byte {
	if uri.pathWithQueryFragmentParsed {
		return uri.pathWithQueryFragment
	}
	if len(uri.host) == 0 {
		uri.pathWithQueryFragment = uri.full
	} else if hostIndex := bytes.Index(uri.full, uri.host); hostIndex > 0 {
		uri.pathWithQueryFragment = uri.full[hostIndex+len(uri.host):]
	}
	if len(uri.pathWithQueryFragment) == 0 {
		uri.pathWithQueryFragment = uri.path
	}
	uri.pathWithQueryFragmentParsed = true
	return uri.pathWithQueryFragment
}

//Path ...
func (uri *URI) Path() []byte {
	return uri.path
}

//Queries ...
func (uri *URI) Queries() []byte {
	return uri.queries
}

//Fragments ...
func (uri *URI) Fragments() []byte {
	return uri.fragments
}

//IsTLS whether the uri scheme is https
func (uri *URI) IsTLS() bool {
	return uri.isTLS
}

//HostWithPort host with port, scheme default port is filled when absent
func (uri *URI) HostWithPort() string {
	return uri.hostWithPort
}

//Reset reset the request URI
func (uri *URI) Reset() {
	uri.isTLS = false
	uri.full = uri.full[:0]
	uri.host = uri.host[:0]
	uri.hostWithPort = ""
	uri.scheme = uri.scheme[:0]
	uri.path = uri.path[:0]
	uri.queries = uri.queries[:0]
	uri.fragments = uri.fragments[:0]
	uri.pathWithQueryFragment = uri.pathWithQueryFragment[:0]
	uri.pathWithQueryFragmentParsed = false
}

var httpsScheme = []byte("https")

//Parse parse the request URI
func (uri *URI) Parse(reqURI []byte) {
	if len(reqURI) == 0 {
		return
	}
	uri.Reset()
	uri.full = reqURI
	fragmentIndex := bytes.IndexByte(reqURI, '#')
	if fragmentIndex >= 0 {
		uri.fragments = reqURI[fragmentIndex:]
		uri.parseWithoutFragments(reqURI[:fragmentIndex])
	} else {
		uri.parseWithoutFragments(reqURI)
	}
	if len(uri.path) == 0 {
		uri.path = []byte("/")
	}
	uri.isTLS = bytes.Equal(uri.scheme, httpsScheme)
	uri.fillHostWithPort()
}

//ParseAuthority parse an authority-form request target, host with an
//optional port, as carried by CONNECT requests
func (uri *URI) ParseAuthority(reqURI []byte) {
	if len(reqURI) == 0 {
		return
	}
	uri.Reset()
	uri.full = reqURI
	uri.host = reqURI
	//CONNECT targets default to the https port
	uri.isTLS = true
	uri.fillHostWithPort()
}

//parse uri with out fragments
func (uri *URI) parseWithoutFragments(reqURI []byte) {
	if len(reqURI) == 0 {
		return
	}
	queryIndex := bytes.IndexByte(reqURI, '?')
	if queryIndex >= 0 {
		uri.queries = reqURI[queryIndex:]
		uri.parseWithoutQueriesFragments(reqURI[:queryIndex])
	} else {
		uri.parseWithoutQueriesFragments(reqURI)
	}
}

//parse uri without queries and fragments
func (uri *URI) parseWithoutQueriesFragments(reqURI []byte) {
	if len(reqURI) == 0 {
		return
	}
	schemeEnd := getSchemeIndex(reqURI)
	if schemeEnd >= 0 {
		uri.scheme = reqURI[:schemeEnd]
		uri.parseWithoutSchemeQueriesFragments(reqURI[schemeEnd+1:])
	} else {
		uri.parseWithoutSchemeQueriesFragments(reqURI)
	}
}

//parse uri without scheme, queries and fragments
func (uri *URI) parseWithoutSchemeQueriesFragments(reqURI []byte) {
	//remove slashes begin with `//`
	if len(uri.scheme) > 0 && len(reqURI) >= 2 && reqURI[0] == '/' && reqURI[1] == '/' {
		slashIndex := 0
		for i, b := range reqURI {
			if b != '/' {
				break
			}
			slashIndex = i
		}
		reqURI = reqURI[slashIndex+1:]
	}
	if len(reqURI) == 0 {
		return
	}
	//only path
	if reqURI[0] == '/' {
		uri.path = reqURI
		return
	}
	//host with path
	hostNameEnd := bytes.IndexByte(reqURI, '/')
	if hostNameEnd > 0 {
		uri.host = reqURI[:hostNameEnd]
		uri.path = reqURI[hostNameEnd:]
	} else {
		uri.host = reqURI
	}
}

//getSchemeIndex (Scheme must be [a-zA-Z0-9]*)
func getSchemeIndex(rawurl []byte) int {
	for i := 0; i < len(rawurl); i++ {
		c := rawurl[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9':
		case c == ':':
			if i == 0 {
				return 0
			}
			return i
		default:
			// we have encountered an invalid character,
			// so there is no valid scheme
			return -1
		}
	}
	return -1
}

//fillHostWithPort ...
func (uri *URI) fillHostWithPort() {
	if len(uri.host) == 0 {
		return
	}
	uri.hostWithPort = string(uri.host)
	if portSepIndex(uri.host) < 0 {
		if uri.isTLS {
			uri.hostWithPort += ":443"
		} else {
			uri.hostWithPort += ":80"
		}
	}
}
