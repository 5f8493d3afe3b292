package http

import "bytes"

func changeToUpperCase(s []byte) {
	for i, b := range s {
		if 'a' <= b && b <= 'z' {
			b -= 'a' - 'A'
			s[i] = b
		}
	}
}

func changeToLowerCase(s []byte) {
	for i, b := range s {
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
			s[i] = b
		}
	}
}

func hasPrefixIgnoreCase(s, prefix []byte) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		if b != c {
			return false
		}
	}
	return true
}

func equalsIgnoreCase(a, b []byte) bool {
	return len(a) == len(b) && hasPrefixIgnoreCase(a, b)
}

var methodConnect = []byte("CONNECT")

//IsMethodConnect if the method is `CONNECT`
func IsMethodConnect(method []byte) bool {
	return bytes.Equal(method, methodConnect)
}

var methodHead = []byte("HEAD")

//IsMethodHead if the method is `HEAD`
func IsMethodHead(method []byte) bool {
	return bytes.Equal(method, methodHead)
}
