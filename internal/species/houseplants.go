package species

import (
	"slices"
	"strings"
)

// Houseplant is one entry of the curated manual-selection list.
type Houseplant struct {
	Korean  string `json:"korean"`
	English string `json:"english"`
}

var houseplants = []Houseplant{
	{"몬스테라", "Monstera Deliciosa"},
	{"스킨답서스", "Epipremnum aureum"},
	{"고무나무", "Ficus elastica"},
	{"산세베리아", "Sansevieria"},
	{"스투키", "Sansevieria cylindrica"},
	{"행운목", "Dracaena fragrans"},
	{"파키라", "Pachira aquatica"},
	{"아레카야자", "Dypsis lutescens"},
	{"개운죽", "Dracaena sanderiana"},
	{"알로에", "Aloe vera"},
	{"선인장", "Cactaceae"},
	{"다육이", "Succulent"},
	{"아이비", "Hedera helix"},
	{"테이블야자", "Chamaedorea elegans"},
	{"금전수", "Zamioculcas zamiifolia"},
	{"칼라테아", "Calathea"},
	{"필로덴드론", "Philodendron"},
	{"보스턴고사리", "Nephrolepis exaltata"},
	{"스파티필럼", "Spathiphyllum"},
	{"안스리움", "Anthurium"},
	{"호야", "Hoya"},
	{"제라늄", "Pelargonium"},
	{"라벤더", "Lavandula"},
	{"로즈마리", "Rosmarinus officinalis"},
	{"바질", "Ocimum basilicum"},
	{"떡갈고무나무", "Ficus lyrata"},
	{"벤자민고무나무", "Ficus benjamina"},
	{"뱅갈고무나무", "Ficus benghalensis"},
	{"여인초", "Strelitzia nicolai"},
	{"극락조", "Strelitzia reginae"},
	{"율마", "Cupressus macrocarpa"},
	{"유칼립투스", "Eucalyptus"},
	{"올리브나무", "Olea europaea"},
	{"레몬나무", "Citrus limon"},
	{"커피나무", "Coffea arabica"},
	{"소철", "Cycas revoluta"},
	{"아가베", "Agave"},
	{"크로톤", "Codiaeum variegatum"},
	{"드라세나", "Dracaena"},
	{"피토니아", "Fittonia"},
	{"페페로미아", "Peperomia"},
	{"트리안", "Tradescantia"},
	{"마란타", "Maranta leuconeura"},
	{"필레아", "Pilea peperomioides"},
	{"장미", "Rosa"},
	{"해바라기", "Helianthus annuus"},
	{"튤립", "Tulipa"},
	{"수국", "Hydrangea"},
	{"데이지", "Bellis perennis"},
	{"민들레", "Taraxacum"},
	{"백합", "Lilium"},
	{"난초", "Orchidaceae"},
	{"히아신스", "Hyacinthus"},
	{"수선화", "Narcissus"},
	{"국화", "Chrysanthemum"},
	{"허브", "Herb"},
	{"민트", "Mentha"},
	{"타임", "Thymus"},
}

// Houseplants returns a copy of the curated list in display order.
func Houseplants() []Houseplant {
	return slices.Clone(houseplants)
}

// Search filters the curated list by a Korean or English substring,
// ignoring case. An empty query returns the whole list.
func Search(query string) []Houseplant {
	q := fold(query)
	if q == "" {
		return Houseplants()
	}

	var out []Houseplant
	for _, p := range houseplants {
		if strings.Contains(fold(p.Korean), q) || strings.Contains(fold(p.English), q) {
			out = append(out, p)
		}
	}
	return out
}
